package api

import (
	"context"
	"net/http"

	"github.com/guardget/guardget/internal/client/models"
)

// InitiateTransferRequest starts handing a device over. At least one
// recipient identifier is required.
type InitiateTransferRequest struct {
	DeviceID       string `json:"deviceId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientPhone string `json:"recipientPhone"`
}

func (c *Client) InitiateTransfer(ctx context.Context, req InitiateTransferRequest) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := c.do(ctx, http.MethodPost, "/users/devices/transfer", nil, req, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) AcceptTransfer(ctx context.Context, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := c.do(ctx, http.MethodPost, "/users/devices/transfer/"+transferID+"/accept", nil, nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) GetTransfer(ctx context.Context, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := c.do(ctx, http.MethodGet, "/users/devices/transfer/"+transferID, nil, nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) CancelTransfer(ctx context.Context, transferID string) error {
	return c.do(ctx, http.MethodDelete, "/users/devices/transfer/"+transferID, nil, nil, nil)
}
