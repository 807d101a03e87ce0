package pages

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/travito/travito"
)

type ContactInfo struct {
	Email   string
	Phone   string
	Address string
}

var contactInfo = ContactInfo{
	Email:   "hello@travito.com",
	Phone:   "+1 (555) 123-4567",
	Address: "123 Travel St, Adventure City, 12345",
}

// ContactForm is the contact form as submitted.
type ContactForm struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type contactData struct {
	Sent  bool
	Error string
	Form  ContactForm
	Info  ContactInfo
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	page, _ := Lookup("/contact")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := ContactForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Subject: strings.TrimSpace(r.PostFormValue("subject")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}

	if verr := travito.ValidateStruct(&form); verr != nil {
		h.write(w, r, http.StatusBadRequest, page, h.newView(r, page,
			contactData{Error: verr.Message, Form: form, Info: contactInfo}))
		return
	}

	msg := &travito.ContactMessage{
		ID:        uuid.NewString(),
		Name:      h.sanitizer.Sanitize(form.Name),
		Email:     form.Email,
		Subject:   h.sanitizer.Sanitize(form.Subject),
		Message:   h.sanitizer.Sanitize(form.Message),
		CreatedAt: h.now().UTC(),
	}
	if h.Contacts == nil {
		h.Logger.WarnContext(r.Context(), "contact store not configured, message dropped", "subject", msg.Subject)
	} else if err := h.Contacts.SaveContactMessage(r.Context(), msg); err != nil {
		h.Logger.ErrorContext(r.Context(), "save contact message", "error", err)
		h.write(w, r, http.StatusInternalServerError, page, h.newView(r, page,
			contactData{Error: "An error occurred while sending your message.", Form: form, Info: contactInfo}))
		return
	}

	h.Logger.InfoContext(r.Context(), "contact message received", "id", msg.ID)
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}
