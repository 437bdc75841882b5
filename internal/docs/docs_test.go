package docs

import (
	"strings"
	"testing"
)

func TestTopicsSortedAndReadable(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("no topics")
	}
	for i, topic := range topics {
		if i > 0 && topics[i-1] > topic {
			t.Fatalf("topics not sorted: %v", topics)
		}
		body, ok := Get(strings.ToUpper(topic))
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("topic %q: ok=%v", topic, ok)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	for _, topic := range []string{"", "nope", "../docs"} {
		if _, ok := Get(topic); ok {
			t.Fatalf("expected %q to be unknown", topic)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("roles"); got != "Roles" {
		t.Fatalf("title: %q", got)
	}
	if got := Title("nope"); got != "" {
		t.Fatalf("unknown topic title: %q", got)
	}
}
