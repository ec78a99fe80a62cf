package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Plans lists the available subscription plans. Works without logging in.
func (a *App) Plans(ctx context.Context) error {
	plans, err := a.api.Plans(ctx)
	if err != nil {
		return err
	}

	for _, p := range plans {
		fmt.Printf("%s  %s: %d device(s), %d/month\n", p.ID, p.Name, p.DeviceCount(), p.Price)
		if p.Description != "" {
			fmt.Printf("    %s\n", p.Description)
		}
	}
	return nil
}

// Subscribe opens a checkout for a plan and settles the payment once the
// user pastes the provider's return URL.
func (a *App) Subscribe(ctx context.Context) error {
	planID, err := getSimpleText(a.reader, "Plan id", os.Stdout)
	if err != nil {
		return err
	}
	monthsText, err := getSimpleText(a.reader, "Months (1-24)", os.Stdout)
	if err != nil {
		return err
	}
	months, err := strconv.Atoi(monthsText)
	if err != nil {
		return fmt.Errorf("invalid month count: %w", err)
	}

	checkout, err := a.payments.Start(ctx, planID, months)
	if err != nil {
		return err
	}

	fmt.Printf("Pay %d at %s\n", checkout.Amount, checkout.CheckoutURL)

	returnURL, err := getSimpleText(a.reader, "Paste the return URL after paying", os.Stdout)
	if err != nil {
		return err
	}

	_, outcome, err := a.payments.HandleReturn(ctx, returnURL)
	if err != nil {
		return err
	}

	if outcome.Status == "completed" && outcome.Subscription != nil {
		fmt.Printf("Subscription active until %s.\n", outcome.Subscription.EndDate.Format("2006-01-02"))
	} else {
		fmt.Printf("Payment %s: %s\n", outcome.Reference, outcome.Status)
	}
	return nil
}

// Receipts lists payment receipts and optionally downloads one as PDF.
func (a *App) Receipts(ctx context.Context) error {
	receipts, err := a.api.Receipts(ctx)
	if err != nil {
		return err
	}

	if len(receipts) == 0 {
		fmt.Println("No receipts.")
		return nil
	}
	for _, r := range receipts {
		doc := ""
		if r.HasDocument {
			doc = "  [pdf]"
		}
		fmt.Printf("%s  %s  %d  %s%s\n", r.ID, r.CreatedAt.Format("2006-01-02"), r.Amount, r.Status, doc)
	}

	receiptID, err := getSimpleText(a.reader, "Receipt id to download (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if receiptID == "" {
		return nil
	}

	body, err := a.api.DownloadReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	defer body.Close()

	fileName := "receipt-" + receiptID + ".pdf"
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return err
	}
	fmt.Printf("Saved %s.\n", fileName)
	return nil
}
