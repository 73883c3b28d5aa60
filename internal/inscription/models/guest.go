package models

import (
	id "inscrito/pkg/domain"
)

// GuestData is the immutable identity of an unauthenticated registrant. Every
// field passes through its value-object parser at construction, so a stored
// GuestData is always well-formed.
type GuestData struct {
	Name      id.PersonName `json:"name"`
	Email     id.Email      `json:"email"`
	Phone     id.Phone      `json:"phone"`
	CPF       id.CPF        `json:"cpf"`
	BirthDate id.BirthDate  `json:"birth_date"`
	Gender    id.Gender     `json:"gender"`
}

// NewGuestData validates the raw submitted fields. Phone, birth date and
// gender are optional; name, email and CPF are not.
func NewGuestData(name, email, phone, cpf, birthDate, gender string) (GuestData, error) {
	parsedName, err := id.ParsePersonName(name)
	if err != nil {
		return GuestData{}, err
	}
	parsedEmail, err := id.ParseEmail(email)
	if err != nil {
		return GuestData{}, err
	}
	parsedCPF, err := id.ParseCPF(cpf)
	if err != nil {
		return GuestData{}, err
	}
	guest := GuestData{
		Name:  parsedName,
		Email: parsedEmail,
		CPF:   parsedCPF,
	}
	if phone != "" {
		guest.Phone, err = id.ParsePhone(phone)
		if err != nil {
			return GuestData{}, err
		}
	}
	if birthDate != "" {
		guest.BirthDate, err = id.ParseBirthDate(birthDate)
		if err != nil {
			return GuestData{}, err
		}
	}
	guest.Gender, err = id.ParseGender(gender)
	if err != nil {
		return GuestData{}, err
	}
	return guest, nil
}
