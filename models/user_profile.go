package models

import "strings"

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID       string    `dynamodbav:"userId" json:"userId"`
	Name         string    `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Age          int       `dynamodbav:"age,omitempty" json:"age,omitempty"`
	Gender       string    `dynamodbav:"gender,omitempty" json:"gender,omitempty"`
	Height       float64   `dynamodbav:"height,omitempty" json:"height,omitempty"`
	Bio          string    `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Interests    string    `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Location     string    `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Photos       []string  `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
	Embedding    []float32 `dynamodbav:"embedding,omitempty" json:"-"`
	IsPremium    bool      `dynamodbav:"isPremium,omitempty" json:"isPremium,omitempty"`
	PremiumUntil string    `dynamodbav:"premiumUntil,omitempty" json:"premiumUntil,omitempty"`
	CreatedAt    string    `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt    string    `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"

// HasEmbedding reports whether the profile has a generated embedding and is
// therefore eligible for discovery.
func (p *UserProfile) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// InterestList splits the stored comma-delimited interests string.
func (p *UserProfile) InterestList() []string {
	if p.Interests == "" {
		return []string{}
	}
	parts := strings.Split(p.Interests, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Summary reduces a profile to the fields shared with the explanation service.
func (p *UserProfile) Summary() ProfileSummary {
	return ProfileSummary{
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Bio:       p.Bio,
		Interests: p.Interests,
		Location:  p.Location,
	}
}

// ProfileSummary is the slice of a profile sent to the explanation service.
type ProfileSummary struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Bio       string `json:"bio"`
	Interests string `json:"interests"`
	Location  string `json:"location"`
}
