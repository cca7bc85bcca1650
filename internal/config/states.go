package config

// State pairs a full state name with its postal abbreviation.
type State struct {
	Name string
	Abbr string
}

var usStates = [...]State{
	{"Alaska", "AK"}, {"Alabama", "AL"}, {"Arkansas", "AR"}, {"Arizona", "AZ"},
	{"California", "CA"}, {"Colorado", "CO"}, {"Connecticut", "CT"}, {"Delaware", "DE"},
	{"Florida", "FL"}, {"Georgia", "GA"}, {"Hawaii", "HI"}, {"Iowa", "IA"},
	{"Idaho", "ID"}, {"Illinois", "IL"}, {"Indiana", "IN"}, {"Kansas", "KS"},
	{"Kentucky", "KY"}, {"Louisiana", "LA"}, {"Massachusetts", "MA"}, {"Maryland", "MD"},
	{"Maine", "ME"}, {"Michigan", "MI"}, {"Minnesota", "MN"}, {"Missouri", "MO"},
	{"Mississippi", "MS"}, {"Montana", "MT"}, {"North Carolina", "NC"}, {"North Dakota", "ND"},
	{"Nebraska", "NE"}, {"New Hampshire", "NH"}, {"New Jersey", "NJ"}, {"New Mexico", "NM"},
	{"Nevada", "NV"}, {"New York", "NY"}, {"Ohio", "OH"}, {"Oklahoma", "OK"},
	{"Oregon", "OR"}, {"Pennsylvania", "PA"}, {"Rhode Island", "RI"}, {"South Carolina", "SC"},
	{"South Dakota", "SD"}, {"Tennessee", "TN"}, {"Texas", "TX"}, {"Utah", "UT"},
	{"Virginia", "VA"}, {"Vermont", "VT"}, {"Washington", "WA"}, {"Wisconsin", "WI"},
	{"West Virginia", "WV"}, {"Wyoming", "WY"},
}

// USStates returns a fresh copy of the fifty states.
func USStates() []State {
	out := make([]State, len(usStates))
	copy(out, usStates[:])
	return out
}

// StateName looks up the full name for an abbreviation.
func StateName(abbr string) (string, bool) {
	for _, s := range usStates {
		if s.Abbr == abbr {
			return s.Name, true
		}
	}
	return "", false
}

// StateAbbr looks up the abbreviation for a full name.
func StateAbbr(name string) (string, bool) {
	for _, s := range usStates {
		if s.Name == name {
			return s.Abbr, true
		}
	}
	return "", false
}
