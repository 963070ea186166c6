package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	ProviderCollection = "providers"

	PROVIDER_STATUS_PENDING  = "pending"
	PROVIDER_STATUS_ACTIVE   = "active"
	PROVIDER_STATUS_REJECTED = "rejected"

	PAYMENT_STATUS_PAID   = "paid"
	PAYMENT_STATUS_UNPAID = "unpaid"

	BILLING_CYCLE_MONTHLY = "monthly"

	// Document keys that carry an expiry date.
	DocumentPrDP       = "prdp"
	DocumentRoadworthy = "roadworthy"

	SourceTypeOther   = "Other"
	SourceTypeUnknown = "Unknown"
)

// Provider is a registered service provider as stored in the providers
// collection. Several presentation fields exist under more than one name;
// Normalize resolves them into the canonical fields at the bottom.
type Provider struct {
	ID string `bson:"_id" json:"id"`

	FullName     string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	BusinessName string `bson:"businessName,omitempty" json:"businessName,omitempty"`

	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	PhoneAlias  string `bson:"phone,omitempty" json:"phone,omitempty"`

	Areas        StringList `bson:"areas,omitempty" json:"areas,omitempty"`
	AreaCovered  StringList `bson:"areaCovered,omitempty" json:"areaCovered,omitempty"`
	ServiceArea  StringList `bson:"serviceArea,omitempty" json:"serviceArea,omitempty"`
	AreaAlias    StringList `bson:"area,omitempty" json:"area,omitempty"`
	Location     StringList `bson:"location,omitempty" json:"location,omitempty"`
	ServiceAreas StringList `bson:"serviceAreas,omitempty" json:"serviceAreas,omitempty"`

	Status             string `bson:"status,omitempty" json:"status"`
	Verified           bool   `bson:"verified,omitempty" json:"verified"`
	PaymentStatus      string `bson:"paymentStatus,omitempty" json:"paymentStatus"`
	AvailabilityStatus string `bson:"availabilityStatus,omitempty" json:"availabilityStatus,omitempty"`

	SubscriptionStartDate *time.Time `bson:"subscriptionStartDate,omitempty" json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time `bson:"subscriptionEndDate,omitempty" json:"subscriptionEndDate,omitempty"`
	GracePeriodEndDate    *time.Time `bson:"gracePeriodEndDate,omitempty" json:"gracePeriodEndDate,omitempty"`
	LastPaymentDate       *time.Time `bson:"lastPaymentDate,omitempty" json:"lastPaymentDate,omitempty"`
	BillingCycle          string     `bson:"billingCycle,omitempty" json:"billingCycle,omitempty"`
	AmountPaid            Amount     `bson:"amountPaid,omitempty" json:"amountPaid,omitempty"`

	Documents map[string]Document `bson:"documents,omitempty" json:"documents,omitempty"`

	AdminNotes      string `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	RejectionReason string `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	RegistrationSource *RegistrationSource `bson:"registrationSource,omitempty" json:"registrationSource,omitempty"`
	ReferralSource     string              `bson:"referralSource,omitempty" json:"referralSource,omitempty"`
	SourceType         string              `bson:"sourceType,omitempty" json:"sourceType,omitempty"`
	SourceAlias        string              `bson:"source,omitempty" json:"source,omitempty"`
	ReferrerName       string              `bson:"referrerName,omitempty" json:"referrerName,omitempty"`
	ReferralName       string              `bson:"referralName,omitempty" json:"referralName,omitempty"`
	Referral           string              `bson:"referral,omitempty" json:"referral,omitempty"`

	CreatedAt       *time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Timestamp       *time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	UpdatedAt       *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	LastProcessedBy string     `bson:"lastProcessedBy,omitempty" json:"lastProcessedBy,omitempty"`

	// Canonical values, filled by Normalize. Never persisted.
	DisplayName      string     `bson:"-" json:"displayName"`
	Phone            string     `bson:"-" json:"phoneDisplay"`
	ServiceAreaLabel string     `bson:"-" json:"serviceAreaLabel"`
	Source           Source     `bson:"-" json:"sourceInfo"`
	JoinedAt         *time.Time `bson:"-" json:"joinedAt,omitempty"`
}

// RegistrationSource describes how the provider found the platform.
type RegistrationSource struct {
	Type         string `bson:"type,omitempty" json:"type,omitempty"`
	SourceType   string `bson:"sourceType,omitempty" json:"sourceType,omitempty"`
	ReferredName string `bson:"referredName,omitempty" json:"referredName,omitempty"`
	ReferralName string `bson:"referralName,omitempty" json:"referralName,omitempty"`
}

// Source is the resolved registration source.
type Source struct {
	Type         string `json:"type"`
	ReferredName string `json:"referredName"`
}

// IsReferral reports whether the provider was referred by someone.
func (s Source) IsReferral() bool {
	return s.Type == "Referral" || s.Type == "friend"
}

// Label is the badge text for the source column.
func (s Source) Label() string {
	if s.IsReferral() {
		return "Referral: " + s.ReferredName
	}
	return s.Type
}

// Normalize resolves aliased fields into the canonical display fields.
// It is idempotent and is called once when a provider is read from the store.
func (p *Provider) Normalize() {
	p.DisplayName = firstNonEmpty(p.FullName, p.Name, p.BusinessName)
	p.Phone = firstNonEmpty(p.PhoneNumber, p.PhoneAlias)

	for _, list := range []StringList{p.Areas, p.AreaCovered, p.ServiceArea, p.AreaAlias, p.Location, p.ServiceAreas} {
		if label := list.Join(); label != "" {
			p.ServiceAreaLabel = label
			break
		}
	}

	rs := RegistrationSource{}
	if p.RegistrationSource != nil {
		rs = *p.RegistrationSource
	}
	p.Source = Source{
		Type:         firstNonEmpty(rs.Type, rs.SourceType, p.ReferralSource, p.SourceType, p.SourceAlias, SourceTypeOther),
		ReferredName: firstNonEmpty(rs.ReferredName, rs.ReferralName, p.ReferrerName, p.ReferralName, p.Referral, SourceTypeUnknown),
	}

	if p.CreatedAt != nil {
		p.JoinedAt = p.CreatedAt
	} else {
		p.JoinedAt = p.Timestamp
	}
}

// DocumentExpiry returns the expiry date recorded for the given document key.
func (p *Provider) DocumentExpiry(key string) *time.Time {
	if p.Documents == nil {
		return nil
	}
	doc, ok := p.Documents[key]
	if !ok {
		return nil
	}
	return doc.ExpiryDate
}

// IsPaid reports whether the registration fee was confirmed.
func (p *Provider) IsPaid() bool {
	return p.PaymentStatus == PAYMENT_STATUS_PAID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// StringList accepts either a single string or an array of strings.
type StringList []string

// Join renders the list as a comma separated label.
func (l StringList) Join() string {
	parts := make([]string, 0, len(l))
	for _, s := range l {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func (l *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*l = StringList{rv.StringValue()}
	case bsontype.Array:
		var out []string
		if err := rv.Unmarshal(&out); err != nil {
			return err
		}
		*l = out
	case bsontype.Null, bsontype.Undefined:
		*l = nil
	default:
		return fmt.Errorf("cannot decode %s into StringList", t)
	}
	return nil
}

// Amount holds an amount that may have been stored as text or as a number.
type Amount string

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*a = Amount(rv.StringValue())
	case bsontype.Int32:
		*a = Amount(fmt.Sprintf("R%d", rv.Int32()))
	case bsontype.Int64:
		*a = Amount(fmt.Sprintf("R%d", rv.Int64()))
	case bsontype.Double:
		*a = Amount(fmt.Sprintf("R%g", rv.Double()))
	case bsontype.Null, bsontype.Undefined:
		*a = ""
	default:
		return fmt.Errorf("cannot decode %s into Amount", t)
	}
	return nil
}

// Document is an uploaded compliance document. Older records store the
// plain URL; newer ones store a sub-document carrying the expiry date.
type Document struct {
	URL        string     `bson:"url" json:"url"`
	ExpiryDate *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
}

type documentFields struct {
	URL        string     `bson:"url"`
	ExpiryDate *time.Time `bson:"expiryDate,omitempty"`
}

func (d *Document) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*d = Document{URL: rv.StringValue()}
	case bsontype.EmbeddedDocument:
		var f documentFields
		if err := rv.Unmarshal(&f); err != nil {
			return err
		}
		*d = Document{URL: f.URL, ExpiryDate: f.ExpiryDate}
	case bsontype.Null, bsontype.Undefined:
		*d = Document{}
	default:
		return fmt.Errorf("cannot decode %s into Document", t)
	}
	return nil
}

func (d Document) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.ExpiryDate == nil {
		return bson.MarshalValue(d.URL)
	}
	return bson.MarshalValue(documentFields{URL: d.URL, ExpiryDate: d.ExpiryDate})
}
