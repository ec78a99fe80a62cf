package cli

import (
	"context"
	"fmt"
	"os"
)

// Transfer starts handing a device over to another user.
func (a *App) Transfer(ctx context.Context) error {
	deviceID, err := getSimpleText(a.reader, "Device id", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Recipient email (optional if phone given)", os.Stdout)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Recipient phone (optional if email given)", os.Stdout)
	if err != nil {
		return err
	}

	transfer, err := a.transfers.Initiate(ctx, deviceID, email, phone)
	if err != nil {
		return err
	}

	fmt.Printf("Transfer %s created, expires %s. Share the id with the recipient.\n",
		transfer.ID, transfer.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

// Accept claims a transfer addressed to the logged-in user.
func (a *App) Accept(ctx context.Context) error {
	transferID, err := getSimpleText(a.reader, "Transfer id", os.Stdout)
	if err != nil {
		return err
	}

	transfer, err := a.transfers.Accept(ctx, transferID)
	if err != nil {
		return err
	}

	fmt.Printf("Transfer %s accepted, device %s is now yours.\n", transfer.ID, transfer.DeviceID)
	return nil
}
