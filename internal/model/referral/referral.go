package referral

// Therapist is a human professional the referral surface can point to.
type Therapist struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Specialty    string `json:"specialty" yaml:"specialty"`
	Availability string `json:"availability" yaml:"availability"`
	ImageURL     string `json:"imageUrl" yaml:"imageUrl"`
	Contact      string `json:"contact" yaml:"contact"`
}

// Hotline is an always-on crisis line shown above the therapist list.
type Hotline struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
	Text  string `json:"text,omitempty" yaml:"text"`
	Hours string `json:"hours" yaml:"hours"`
}

// Directory is the full content of the referral surface.
type Directory struct {
	Hotlines   []Hotline   `json:"hotlines" yaml:"hotlines"`
	Therapists []Therapist `json:"therapists" yaml:"therapists"`
}

// Seed provides the default directory used when no file is configured.
func Seed() Directory {
	return Directory{
		Hotlines: []Hotline{
			{Name: "988 Suicide & Crisis Lifeline", Phone: "988", Text: "988", Hours: "24/7"},
			{Name: "Crisis Text Line", Text: "Text HOME to 741741", Hours: "24/7"},
		},
		Therapists: []Therapist{
			{
				ID:           "t-1",
				Name:         "Dr. Sarah Chen",
				Specialty:    "Anxiety & Depression",
				Availability: "Available Today",
				ImageURL:     "https://picsum.photos/100/100?random=1",
				Contact:      "Book via Telehealth",
			},
			{
				ID:           "t-2",
				Name:         "Marcus Johnson, LCSW",
				Specialty:    "Trauma & PTSD",
				Availability: "Next: Tomorrow",
				ImageURL:     "https://picsum.photos/100/100?random=2",
				Contact:      "Call Office",
			},
			{
				ID:           "t-3",
				Name:         "Elena Rodriguez",
				Specialty:    "Stress Management",
				Availability: "Available Today",
				ImageURL:     "https://picsum.photos/100/100?random=3",
				Contact:      "Chat Now",
			},
		},
	}
}
