package company

import (
	"net/mail"
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/ttacon/libphonenumber"
)

// CompanyType classifies a company within a tenant's group structure
type CompanyType string

const (
	CompanyTypeManufacturer CompanyType = "manufacturer"
	CompanyTypePlant        CompanyType = "plant"
	CompanyTypeDistributor  CompanyType = "distributor"
)

// IsValid reports whether the type is known
func (t CompanyType) IsValid() bool {
	switch t {
	case CompanyTypeManufacturer, CompanyTypePlant, CompanyTypeDistributor:
		return true
	}
	return false
}

// DefaultCurrency is used when a company is created without one
const DefaultCurrency = "USD"

// defaultPhoneRegion is used to parse numbers written without a country code
const defaultPhoneRegion = "US"

// Company is a legal entity keeping its own books inside a tenant
type Company struct {
	shared.TenantAggregateRoot
	Code     string
	Name     string
	Type     CompanyType
	Currency string
	Phone    string
	Email    string
	Address  string
	IsActive bool
}

// Profile holds the optional contact fields of a company
type Profile struct {
	Currency string
	Phone    string
	Email    string
	Address  string
}

// NewCompany creates a company inside a tenant
func NewCompany(tenantID uuid.UUID, code, name string, companyType CompanyType, profile Profile) (*Company, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Company code must be 1-50 characters")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !companyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Company type must be manufacturer, plant or distributor")
	}

	c := &Company{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Type:                companyType,
		IsActive:            true,
	}
	if err := c.applyProfile(profile); err != nil {
		return nil, err
	}

	c.AddDomainEvent(NewCompanyCreatedEvent(c))
	return c, nil
}

// Update changes name, type and profile
func (c *Company) Update(name string, companyType CompanyType, profile Profile) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !companyType.IsValid() {
		return shared.NewDomainError("INVALID_TYPE", "Company type must be manufacturer, plant or distributor")
	}
	if err := c.applyProfile(profile); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Type = companyType
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewCompanyUpdatedEvent(c))
	return nil
}

// Deactivate stops the company from taking part in new transactions
func (c *Company) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Company is already inactive")
	}
	c.IsActive = false
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
	return nil
}

// Activate re-enables the company
func (c *Company) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Company is already active")
	}
	c.IsActive = true
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
	return nil
}

func (c *Company) applyProfile(p Profile) error {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO 4217 code")
	}

	phone, err := NormalizePhone(p.Phone)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(p.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
		}
	}

	c.Currency = currency
	c.Phone = phone
	c.Email = email
	c.Address = strings.TrimSpace(p.Address)
	return nil
}

// NormalizePhone validates a phone number and formats it as E.164.
// An empty input is allowed and stays empty.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	num, err := libphonenumber.Parse(phone, defaultPhoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", shared.NewDomainError("INVALID_PHONE", "Phone number is not valid")
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
