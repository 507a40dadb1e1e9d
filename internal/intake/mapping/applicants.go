package mapping

// ApplicantsDefinition maps the player application form onto the applicants
// SharePoint list. Refs are the stable question references set in the form
// builder, so question wording can change without touching this table.
func ApplicantsDefinition() Definition {
	return Definition{
		Name: "applicants",
		Fields: map[string]string{
			"full_name":        "Title",
			"email":            "Email",
			"phone":            "Phone",
			"date_of_birth":    "DateOfBirth",
			"city":             "City",
			"position":         "Position",
			"current_club":     "CurrentClub",
			"experience_level": "ExperienceLevel",
			"highlights_url":   "HighlightsUrl",
			"instagram":        "Instagram",
			"heard_from":       "HeardFrom",
			"marketing_opt_in": "MarketingOptIn",
			"terms_accepted":   "TermsAccepted",
		},
		Required:   []string{"Title", "Email", "City", "Position", "TermsAccepted"},
		NameField:  "Title",
		EmailField: "Email",
	}
}

// DefaultTable returns the built-in applicants table.
func DefaultTable() *Table {
	return MustTable(ApplicantsDefinition())
}
