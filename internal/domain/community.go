package domain

// Community is the authoritative record of a community in the relational store.
// City, Timezone and Description are store-side attributes used for filtering
// and seeding; they never appear in a match.
type Community struct {
	ID             string `json:"community_id"`
	Name           string `json:"community_name"`
	Category       string `json:"category"`
	MemberCount    int    `json:"member_count"`
	RecentActivity int    `json:"recent_activity"`
	City           string `json:"city,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	Description    string `json:"description,omitempty"`
}

// IndexText is the text embedded for a community when it is written to the vector index.
func (c Community) IndexText() string {
	return "Name: " + c.Name + "\nCategory: " + c.Category + "\nDescription: " + c.Description
}

// CommunityIDs returns the ids of cs in order.
func CommunityIDs(cs []Community) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}
