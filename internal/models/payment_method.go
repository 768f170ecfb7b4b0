package models

import (
	"strings"
	"time"
	"unicode"
)

// SavedCard is a card kept for checkout. Only the last four digits of the
// number are stored; the full number and the CVV never reach a slot.
type SavedCard struct {
	ID         string    `json:"id"`
	HolderName string    `json:"holderName"`
	Last4      string    `json:"last4"`
	Expiry     string    `json:"expiry"` // MM/YY
	CreatedAt  time.Time `json:"createdAt"`
}

// Masked renders the number the way it is shown to the user.
func (c SavedCard) Masked() string {
	return "**** **** **** " + c.Last4
}

type SavedCardView struct {
	SavedCard
	Masked string `json:"masked"`
}

func (c SavedCard) View() SavedCardView {
	return SavedCardView{SavedCard: c, Masked: c.Masked()}
}

type AddCardRequest struct {
	HolderName string `json:"holderName" validate:"required,max=100"`
	Number     string `json:"number" validate:"required,number,len=16"`
	Expiry     string `json:"expiry" validate:"required,datetime=01/06"`
	CVV        string `json:"cvv" validate:"required,number,min=3,max=4"`
}

// Normalize strips the spacing users type into card fields.
func (r *AddCardRequest) Normalize() {
	r.HolderName = strings.TrimSpace(r.HolderName)
	r.Number = stripSpaces(r.Number)
	r.Expiry = stripSpaces(r.Expiry)
	r.CVV = strings.TrimSpace(r.CVV)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
