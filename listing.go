package harvest

import "strings"

// Sentinel values substituted when a field cannot be extracted.
const (
	NoCategoryName       = "차명 정보 없음"
	NoRegistrationNumber = "차량번호 정보 없음"
	NoModelYear          = "연식 정보 없음"
	NoOdometer           = "주행거리 정보 없음"
	NoOptions            = "기타사항 정보 없음"
	NoDescription        = "상세설명 정보 없음"

	// ErrorValue replaces every field of a listing that failed to fetch or extract.
	ErrorValue = "Error"
)

// Listing is one vehicle-for-sale page extracted into structured fields.
// A listing is immutable once returned by an Extractor or Harvester.
type Listing struct {
	SourceURL          string   `json:"sourceUrl"`
	CategoryName       string   `json:"categoryName"`
	DisplayName        string   `json:"displayName"`
	RegistrationNumber string   `json:"registrationNumber"`
	Price              Price    `json:"price"`
	ModelYear          string   `json:"modelYear"`
	Odometer           string   `json:"odometerReading"`
	Options            string   `json:"optionsText"`
	Description        string   `json:"description"`
	Images             []string `json:"images"`

	// Error is set only when the listing could not be fetched or extracted.
	// All other fields then hold ErrorValue.
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// NewErrorListing returns the record used for a URL that failed.
// Every field carries ErrorValue so callers never see a partial mix.
func NewErrorListing(sourceURL, message string) *Listing {
	return &Listing{
		SourceURL:          sourceURL,
		CategoryName:       ErrorValue,
		DisplayName:        ErrorValue,
		RegistrationNumber: ErrorValue,
		Price:              NewPrice(0),
		ModelYear:          ErrorValue,
		Odometer:           ErrorValue,
		Options:            ErrorValue,
		Description:        ErrorValue,
		Images:             []string{},
		Error:              message,
	}
}

// ListingFromError returns the error record for sourceURL carrying the
// code and message of err.
func ListingFromError(sourceURL string, err error) *Listing {
	l := NewErrorListing(sourceURL, ErrorMessage(err))
	l.ErrorCode = ErrorCode(err)
	return l
}

// Failed reports whether the listing carries an error.
func (l *Listing) Failed() bool {
	return l.Error != ""
}

// Validate returns an error if the listing cannot be written to a bundle.
func (l *Listing) Validate() error {
	if l.Failed() {
		return Errorf(EINVALID, "listing %s failed: %s", l.SourceURL, l.Error)
	}
	if strings.TrimSpace(l.RegistrationNumber) == "" {
		return Errorf(EINVALID, "listing registration number required")
	}
	return nil
}

// ListingField is one named textual field of a listing.
type ListingField struct {
	Name  string
	Value string
}

// Fields returns the textual fields in display order. Names match the
// manuscript template placeholders.
func (l *Listing) Fields() []ListingField {
	return []ListingField{
		{"categoryName", l.CategoryName},
		{"displayName", l.DisplayName},
		{"registrationNumber", l.RegistrationNumber},
		{"priceLabel", l.Price.Label},
		{"compactLabel", l.Price.CompactLabel},
		{"modelYear", l.ModelYear},
		{"odometer", l.Odometer},
		{"options", l.Options},
		{"description", l.Description},
	}
}
