package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/services"
)

// Devices lists the account's devices, falling back to the local cache when
// the backend is unreachable.
func (a *App) Devices(ctx context.Context) error {
	list, err := a.devices.List(ctx)
	if err != nil {
		return err
	}

	if list.Stale {
		fmt.Printf("Server unreachable, showing cached list from %s\n", list.FetchedAt.Format(time.RFC1123))
	}
	if len(list.Devices) == 0 {
		fmt.Println("No devices registered.")
		return nil
	}
	for _, d := range list.Devices {
		identifier := d.IMEI1
		if identifier == "" {
			identifier = d.SerialNumber
		}
		fmt.Printf("%s  %s (%s)  %s  [%s]\n", d.ID, d.Name, d.Type, identifier, d.Status)
	}
	return nil
}

// Add registers a new device.
func (a *App) Add(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Device name", os.Stdout)
	if err != nil {
		return err
	}
	deviceType, err := getSimpleText(a.reader, "Type (phone/laptop/tablet/other)", os.Stdout)
	if err != nil {
		return err
	}
	imei1, err := getSimpleText(a.reader, "IMEI 1 (optional)", os.Stdout)
	if err != nil {
		return err
	}
	imei2, err := getSimpleText(a.reader, "IMEI 2 (optional)", os.Stdout)
	if err != nil {
		return err
	}
	serial, err := getSimpleText(a.reader, "Serial number (optional)", os.Stdout)
	if err != nil {
		return err
	}

	device, err := a.devices.Register(ctx, api.RegisterDeviceRequest{
		Name:         name,
		Type:         deviceType,
		IMEI1:        imei1,
		IMEI2:        imei2,
		SerialNumber: serial,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Device %s registered with id %s.\n", device.Name, device.ID)
	return nil
}

// Report marks a device stolen or missing, optionally attaching a photo.
func (a *App) Report(ctx context.Context) error {
	deviceID, err := getSimpleText(a.reader, "Device id", os.Stdout)
	if err != nil {
		return err
	}
	status, err := getSimpleText(a.reader, "Status (stolen/missing/active)", os.Stdout)
	if err != nil {
		return err
	}

	// Recovery and deactivation need no incident details.
	if status != "stolen" && status != "missing" {
		device, err := a.devices.SetStatus(ctx, deviceID, status)
		if err != nil {
			return err
		}
		fmt.Printf("Device %s is now %s.\n", device.ID, device.Status)
		return nil
	}

	location, err := getSimpleText(a.reader, "Where did it happen", os.Stdout)
	if err != nil {
		return err
	}
	dateText, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return err
	}
	date := time.Now()
	if dateText != "" {
		date, err = time.Parse("2006-01-02", dateText)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}
	contactPhone, err := getSimpleText(a.reader, "Contact phone shown to finders (optional)", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}
	photoPath, err := getSimpleText(a.reader, "Photo file (optional)", os.Stdout)
	if err != nil {
		return err
	}

	var photoKey string
	if photoPath != "" {
		data, err := os.ReadFile(photoPath)
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		photoKey, err = a.devices.UploadPhoto(ctx, "image/jpeg", data)
		if err != nil {
			return fmt.Errorf("uploading photo: %w", err)
		}
	}

	device, err := a.devices.Report(ctx, deviceID, services.ReportInput{
		Status:       status,
		Location:     location,
		Date:         date,
		ContactPhone: contactPhone,
		Description:  description,
		PhotoKey:     photoKey,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Device %s reported %s.\n", device.ID, device.Status)
	return nil
}
