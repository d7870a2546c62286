package broker

import "testing"

func TestTopicTreeGetOrCreateAndGet(t *testing.T) {
	tt := NewTopicTree()

	created := tt.GetOrCreate("a/b/c")
	found, ok := tt.Get("a/b/c")
	if !ok || found != created {
		t.Fatalf("Get after GetOrCreate did not return the same Topic")
	}

	if _, ok := tt.Get("a/b/x"); ok {
		t.Error("Get should not find a topic that was never created")
	}
}

func TestNormalizeAddsTrailingSlash(t *testing.T) {
	if got := Normalize("a/b"); got != "a/b/" {
		t.Errorf("Normalize(%q) = %q, want %q", "a/b", got, "a/b/")
	}
	if got := Normalize("a/b/"); got != "a/b/" {
		t.Errorf("Normalize should be idempotent, got %q", got)
	}
}

func TestPrefixMapExpandsWildcard(t *testing.T) {
	tt := NewTopicTree()
	tt.GetOrCreate("home/kitchen/temp")
	tt.GetOrCreate("home/kitchen/humidity")
	tt.GetOrCreate("home/garage/door")
	tt.GetOrCreate("office/temp")

	var matched []string
	tt.PrefixMap("home/kitchen/", func(topic *Topic) {
		matched = append(matched, topic.Name)
	})

	if len(matched) != 2 {
		t.Fatalf("expected 2 topics under home/kitchen/#, got %d: %v", len(matched), matched)
	}
}

func TestPrefixMapOnUnknownPrefixMatchesNothing(t *testing.T) {
	tt := NewTopicTree()
	tt.GetOrCreate("a/b")

	var matched []string
	tt.PrefixMap("z/", func(topic *Topic) {
		matched = append(matched, topic.Name)
	})
	if len(matched) != 0 {
		t.Errorf("expected no matches, got %v", matched)
	}
}

func TestSetRetainedNilClears(t *testing.T) {
	topic := newTopic("a/")
	topic.SetRetained(&RetainedMessage{Payload: []byte("x")})
	if topic.Retained() == nil {
		t.Fatal("expected a retained message to be set")
	}
	topic.SetRetained(nil)
	if topic.Retained() != nil {
		t.Error("SetRetained(nil) should clear the retained message")
	}
}

func TestSubscriberRefCounting(t *testing.T) {
	sess := newSession("c1", true, 60, nil)
	sub := newSubscriber(sess, 1)

	sub.Ref()
	sub.Ref()
	if got := sub.Refs(); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}
}
