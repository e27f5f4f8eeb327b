package companyapimodels

type UserDisplay struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
