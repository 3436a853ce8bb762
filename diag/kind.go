package diag

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// Kind identifies a diagnostic. Kinds before firstWarning are hard errors
// that make the filter abort the program; the rest are warnings.
type Kind int

const (
	UnsupportedDistanceMode Kind = iota
	UnsupportedArcDistanceMode
	NonExplicitPositionValue
	MaterialNotFound
	MaterialNumberInUse
	MalformedMaterialDirective
	MaterialChangeUnderCompensation
	MaterialFileError
	MaterialNotSpecified
	InvalidMaterialNumber
	SpindleOnBeforeMotion
	G92OffsetNotAllowed

	DeprecatedUnitsDirective
	HoleDirectionSuspicious
	CutterCompConflict
	FeedRateMismatch
	MaterialReloadTimeout
	InvalidDiameterWord
	PierceInvalidWhileScribing
	InvalidCharacters
	InvalidDirectiveValue

	kindCount
)

const firstWarning = DeprecatedUnitsDirective

var kindNames = map[Kind]string{
	UnsupportedDistanceMode:         "UnsupportedDistanceMode",
	UnsupportedArcDistanceMode:      "UnsupportedArcDistanceMode",
	NonExplicitPositionValue:        "NonExplicitPositionValue",
	MaterialNotFound:                "MaterialNotFound",
	MaterialNumberInUse:             "MaterialNumberInUse",
	MalformedMaterialDirective:      "MalformedMaterialDirective",
	MaterialChangeUnderCompensation: "MaterialChangeUnderCompensation",
	MaterialFileError:               "MaterialFileError",
	MaterialNotSpecified:            "MaterialNotSpecified",
	InvalidMaterialNumber:           "InvalidMaterialNumber",
	SpindleOnBeforeMotion:           "SpindleOnBeforeMotion",
	G92OffsetNotAllowed:             "G92OffsetNotAllowed",
	DeprecatedUnitsDirective:        "DeprecatedUnitsDirective",
	HoleDirectionSuspicious:         "HoleDirectionSuspicious",
	CutterCompConflict:              "CutterCompConflict",
	FeedRateMismatch:                "FeedRateMismatch",
	MaterialReloadTimeout:           "MaterialReloadTimeout",
	InvalidDiameterWord:             "InvalidDiameterWord",
	PierceInvalidWhileScribing:      "PierceInvalidWhileScribing",
	InvalidCharacters:               "InvalidCharacters",
	InvalidDirectiveValue:           "InvalidDirectiveValue",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Label is the snake_case form used in reports and metric labels.
func (k Kind) Label() string {
	return strcase.ToSnake(k.String())
}

func (k Kind) IsError() bool {
	return k < firstWarning
}

func (k Kind) Severity() Severity {
	if k.IsError() {
		return SeverityError
	}
	return SeverityWarning
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Label()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind := Kind(0); kind < kindCount; kind++ {
		if kind.Label() == string(text) || kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", text)
}

// Kinds lists every kind, errors first.
func Kinds() []Kind {
	kinds := make([]Kind, 0, int(kindCount))
	for kind := Kind(0); kind < kindCount; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
