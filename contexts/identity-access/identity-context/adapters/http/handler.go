package httpadapter

import (
	"context"
	"log/slog"

	"resupply/contexts/identity-access/identity-context/application"
	httptransport "resupply/contexts/identity-access/identity-context/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) WhoAmIHandler(ctx context.Context, token string) (httptransport.WhoAmIResponse, error) {
	identity, err := h.Service.VerifyCredential(ctx, token)
	if err != nil {
		return httptransport.WhoAmIResponse{}, err
	}
	resp := httptransport.WhoAmIResponse{Status: "success"}
	resp.Data.UserID = identity.UserID
	resp.Data.OrganizationID = identity.OrganizationID
	resp.Data.OrganizationCategory = identity.OrganizationCategory
	resp.Data.Role = string(identity.Role)
	return resp, nil
}
