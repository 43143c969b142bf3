package models

type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	CSRFToken    string `json:"csrf_token"`
}

type RefreshResult struct {
	AccessToken string `json:"access_token"`
	CSRFToken   string `json:"csrf_token"`
}
