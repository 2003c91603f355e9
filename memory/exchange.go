package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// knownPlants are the species mined from conversation text. Matching is
// substring-based so plurals ("tomatoes") hit too.
var knownPlants = []string{"tomato", "basil", "rose", "cactus", "orchid", "mint", "lettuce"}

// Exchange is one stored user/agent exchange, the unit of long-term memory.
type Exchange struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserText  string            `json:"user_text"`
	AgentText string            `json:"agent_text"`
	Plants    []string          `json:"plants,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewExchange builds an exchange, mining plant mentions from both sides.
func NewExchange(userID, userText, agentText string) *Exchange {
	return &Exchange{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserText:  userText,
		AgentText: agentText,
		Plants:    ExtractPlants(userText + " " + agentText),
		Timestamp: time.Now(),
	}
}

// ExtractPlants returns the known plant names mentioned in the text.
func ExtractPlants(text string) []string {
	lowered := strings.ToLower(text)
	var plants []string
	for _, plant := range knownPlants {
		if strings.Contains(lowered, plant) {
			plants = append(plants, plant)
		}
	}
	return plants
}

// FormatForEmbedding renders the exchange as the text that gets embedded.
// Both sides are included so recall works from either direction.
func (e *Exchange) FormatForEmbedding() string {
	return fmt.Sprintf("User: %s\nAdvisor: %s", e.UserText, e.AgentText)
}

// Format renders the exchange for inclusion in a prompt.
func (e *Exchange) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] User asked: %s\n", e.Timestamp.Format("2006-01-02"), e.UserText)
	fmt.Fprintf(&b, "You answered: %s", truncate(e.AgentText, 300))
	if len(e.Plants) > 0 {
		fmt.Fprintf(&b, "\nPlants mentioned: %s", strings.Join(e.Plants, ", "))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
