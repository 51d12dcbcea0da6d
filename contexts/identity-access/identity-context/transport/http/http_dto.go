package httptransport

// WhoAmIResponse echoes the resolved identity for a presented credential.
type WhoAmIResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserID               string `json:"user_id"`
		OrganizationID       string `json:"organization_id"`
		OrganizationCategory string `json:"organization_category"`
		Role                 string `json:"role"`
	} `json:"data"`
}
