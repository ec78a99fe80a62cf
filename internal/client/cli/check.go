package cli

import (
	"context"
	"fmt"
	"os"
)

// Check looks an IMEI or serial number up before a second-hand purchase.
// Works without logging in.
func (a *App) Check(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "IMEI or serial number", os.Stdout)
	if err != nil {
		return err
	}

	result, err := a.checker.Check(ctx, identifier)
	if err != nil {
		return err
	}

	if !result.Found {
		fmt.Println("Not registered with Guardget.")
		return nil
	}

	fmt.Printf("%s (%s), status: %s\n", result.Name, result.Type, result.Status)
	if result.Reported && result.Incident != nil {
		inc := result.Incident
		fmt.Printf("REPORTED %s on %s at %s\n", result.Status, inc.Date.Format("2006-01-02"), inc.Location)
		if inc.ContactPhone != "" {
			fmt.Printf("Owner contact: %s\n", inc.ContactPhone)
		}
		if inc.Description != "" {
			fmt.Println(inc.Description)
		}
		if inc.PhotoURL != "" {
			fmt.Printf("Photo: %s\n", inc.PhotoURL)
		}
	}
	return nil
}
