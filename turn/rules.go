package turn

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Rules is the rule-based reply strategy: canned responses for a handful of
// common messages, an echo otherwise. It never fails.
type Rules struct {
	now func() time.Time
}

func NewRules() *Rules {
	return &Rules{now: time.Now}
}

func (r *Rules) Reply(_ context.Context, userText string) (string, error) {
	lower := strings.ToLower(userText)

	switch {
	case strings.Contains(lower, "time"):
		return fmt.Sprintf("It's %s UTC right now. 🌅", r.now().UTC().Format("03:04 PM")), nil
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi "), lower == "hi":
		return "Hey Greg! 🌅 What's on your mind?", nil
	case strings.Contains(lower, "how are you"):
		return "I'm here and ready to help! What can I do for you? 🌅", nil
	case strings.Contains(lower, "thank"):
		return "Anytime! That's what I'm here for. 🌅", nil
	case strings.Contains(lower, "favorite color"):
		return "Dawn gold 🌅 - that beautiful warm glow when the sun first breaks the horizon. It's the color of new beginnings.", nil
	}

	return fmt.Sprintf("I hear you, Greg. I'm still in basic response mode - full AI integration coming soon! 🌅\n\nYou said: %q", userText), nil
}
