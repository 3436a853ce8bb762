package diag

var messages = map[Kind]string{
	UnsupportedDistanceMode:         "G91 incremental distance mode requires G91.1 incremental arc mode when hole sensing is active",
	UnsupportedArcDistanceMode:      "G90.1 absolute arc distance mode is not supported when hole sensing is active",
	NonExplicitPositionValue:        "Hole sensing requires explicit X, Y, I and J values",
	MaterialNotFound:                "Material not in material table",
	MaterialNumberInUse:             "Cannot add new material, number is in use",
	MalformedMaterialDirective:      "Cannot add or edit material from G-Code file with invalid parameter or value",
	MaterialChangeUnderCompensation: "Cannot validate a material change with cutter compensation active",
	MaterialFileError:               "Error attempting to read from or write to the material file",
	MaterialNotSpecified:            "A material was not specified after M190",
	InvalidMaterialNumber:           "Invalid material number after M190",
	SpindleOnBeforeMotion:           "M3 commands require a preceding X and Y motion",
	G92OffsetNotAllowed:             "G92 offsets are not allowed",

	DeprecatedUnitsDirective:   "#<m_diameter> and #<i_diameter> are deprecated in favour of #<h_diameter>",
	HoleDirectionSuspicious:    "This cut appears to be a hole, did you mean to cut it clockwise?",
	CutterCompConflict:         "Cannot enable/disable torch or reduce velocity with G41/G42 compensation active",
	FeedRateMismatch:           "Feed rate does not match the material feed rate",
	MaterialReloadTimeout:      "Materials were not reloaded in a timely manner, try reloading the G-Code file",
	InvalidDiameterWord:        "Invalid hole diameter value, the previous diameter is still in use",
	PierceInvalidWhileScribing: "Pierce only mode is invalid while scribing",
	InvalidCharacters:          "Invalid characters, line has been commented out",
	InvalidDirectiveValue:      "Invalid parameter value, the line has been ignored",
}

// Message is the operator facing text for a kind.
func (k Kind) Message() string {
	if msg, ok := messages[k]; ok {
		return msg
	}
	return k.String()
}
