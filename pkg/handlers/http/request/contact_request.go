package request

// ContactRequest documents the contact form body; the gate decodes it itself.
type ContactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captchaToken"`
}
