package models

// Interaction is the single record kept per pair of users. The pair is stored
// in canonical order (smaller id first) so at most one record can exist for
// any two users, regardless of who acted first.
type Interaction struct {
	PairID             string `dynamodbav:"pairId" json:"pairId"` // Partition Key
	ID                 string `dynamodbav:"id" json:"id"`
	UserID1            string `dynamodbav:"userId1" json:"userId1"` // Used in GSI
	UserID2            string `dynamodbav:"userId2" json:"userId2"` // Used in GSI
	InitiatorID        string `dynamodbav:"initiatorId,omitempty" json:"initiatorId,omitempty"`
	Status             string `dynamodbav:"status" json:"status"` // pending, matched, declined, blocked
	CompatibilityScore int    `dynamodbav:"compatibilityScore" json:"compatibilityScore"`
	Explanation        string `dynamodbav:"explanation,omitempty" json:"explanation,omitempty"`
	CreatedAt          string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt          string `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// InteractionsTable is the DynamoDB table name for interaction records
const InteractionsTable = "Interactions"

// GSI names used to list a user's interactions from either pair position
const (
	UserID1Index = "userId1-index"
	UserID2Index = "userId2-index"
)

// CanonicalPair orders two user ids and derives the pair key.
func CanonicalPair(a, b string) (userID1, userID2, pairID string) {
	if b < a {
		a, b = b, a
	}
	return a, b, a + "#" + b
}

// OtherUser returns the counterpart of userID in the pair.
func (i *Interaction) OtherUser(userID string) string {
	if i.UserID1 == userID {
		return i.UserID2
	}
	return i.UserID1
}

// Involves reports whether userID is a member of the pair.
func (i *Interaction) Involves(userID string) bool {
	return i.UserID1 == userID || i.UserID2 == userID
}
