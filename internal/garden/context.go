package garden

import "fmt"

// Profile holds the fixed facts about the garden's environment that the
// assistant folds into generation prompts.
type Profile struct {
	Location      string
	HardinessZone string
}

// DefaultProfile is the garden the assistant was originally built for.
func DefaultProfile() Profile {
	return Profile{
		Location:      "Houston, TX",
		HardinessZone: "9a",
	}
}

// ContextString renders the environment facts for inclusion in a prompt.
func (p Profile) ContextString() string {
	return fmt.Sprintf(
		"The garden is located in %s (USDA hardiness zone %s). "+
			"Summers are long, hot and humid; winters are mild with occasional frosts. "+
			"Tailor all advice to this climate.",
		p.Location, p.HardinessZone)
}
