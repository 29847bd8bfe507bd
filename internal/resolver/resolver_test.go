package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentpress/internal/document"
	"git.home.luguber.info/inful/contentpress/internal/parser"
)

func parseBody(t *testing.T, body string) []parser.Block {
	t.Helper()
	blocks, err := parser.Parse([]byte(body))
	require.NoError(t, err)
	return blocks
}

func indexWith(slugs map[string]string) *document.SlugIndex {
	idx := emptyIndex()
	for slug, id := range slugs {
		idx.Add(slug, id)
	}
	return idx
}

func emptyIndex() *document.SlugIndex {
	idx, _ := document.BuildSlugIndex(document.NewCorpus())
	return idx
}

func TestResolve_KnownSlug_Resolved(t *testing.T) {
	idx := indexWith(map[string]string{"/questions/react-forms": "react-forms"})
	blocks := parseBody(t, "See [forms](/questions/react-forms).\n")

	report := New(idx).Resolve(map[string][]parser.Block{"quiz-guide": blocks})
	require.Len(t, report.Entries, 1)
	require.Equal(t, StatusResolved, report.Entries[0].Status)
	require.False(t, report.HasDangling())
}

func TestResolve_UnknownSlug_ExactlyOneDanglingEntry(t *testing.T) {
	idx := emptyIndex()
	blocks := parseBody(t, "See [a](/questions/does-not-exist) and again [b](/questions/does-not-exist).\n")

	report := New(idx).Resolve(map[string][]parser.Block{"quiz-guide": blocks})
	require.Len(t, report.Entries, 1)
	require.Equal(t, Entry{
		SourceID:   "quiz-guide",
		TargetSlug: "/questions/does-not-exist",
		Status:     StatusDangling,
	}, report.Entries[0])
	require.True(t, report.HasDangling())
}

func TestResolve_ExternalLinks_Ignored(t *testing.T) {
	idx := emptyIndex()
	blocks := parseBody(t, "[MDN](https://developer.mozilla.org) and [proto-relative](//cdn.example.com/x).\n")

	report := New(idx).Resolve(map[string][]parser.Block{"quiz-guide": blocks})
	require.Empty(t, report.Entries)
}

func TestResolve_FragmentAndQueryStripped(t *testing.T) {
	idx := indexWith(map[string]string{"/questions/react-forms": "react-forms"})
	blocks := parseBody(t, "[section](/questions/react-forms#validation) [q](/questions/react-forms?tab=1)\n")

	report := New(idx).Resolve(map[string][]parser.Block{"quiz-guide": blocks})
	require.Len(t, report.Entries, 1)
	require.Equal(t, StatusResolved, report.Entries[0].Status)
}

func TestResolve_MonotonicUnderIndexGrowth(t *testing.T) {
	idx := emptyIndex()
	blocks := parseBody(t, "[forms](/questions/react-forms)\n")
	docs := map[string][]parser.Block{"quiz-guide": blocks}

	before := New(idx).Resolve(docs)
	require.Equal(t, StatusDangling, before.Entries[0].Status)

	idx.Add("/questions/react-forms", "react-forms")

	after := New(idx).Resolve(docs)
	require.Equal(t, StatusResolved, after.Entries[0].Status)
}

func TestResolve_EntriesSortedBySourceThenTarget(t *testing.T) {
	idx := emptyIndex()
	report := New(idx).Resolve(map[string][]parser.Block{
		"b-doc": parseBody(t, "[x](/z) [y](/a)\n"),
		"a-doc": parseBody(t, "[x](/m)\n"),
	})

	require.Len(t, report.Entries, 3)
	require.Equal(t, "a-doc", report.Entries[0].SourceID)
	require.Equal(t, "/a", report.Entries[1].TargetSlug)
	require.Equal(t, "/z", report.Entries[2].TargetSlug)
}

func TestInternalTargets_ReferenceDefinitionsIncluded(t *testing.T) {
	blocks := parseBody(t, "Text with [ref][r].\n\n[r]: /questions/react-forms\n")
	targets := InternalTargets(blocks)
	require.Contains(t, targets, "/questions/react-forms")
}

type capturingPublisher struct {
	events []*DanglingLinkEvent
}

func (c *capturingPublisher) PublishDanglingLink(_ context.Context, e *DanglingLinkEvent) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturingPublisher) Close() error { return nil }

func TestPublishReport_OnlyDanglingEntriesPublished(t *testing.T) {
	idx := indexWith(map[string]string{"/ok": "ok"})
	report := New(idx).Resolve(map[string][]parser.Block{
		"doc": parseBody(t, "[a](/ok) [b](/missing)\n"),
	})

	pub := &capturingPublisher{}
	PublishReport(context.Background(), pub, report, "build-1", time.Now())

	require.Len(t, pub.events, 1)
	require.Equal(t, "/missing", pub.events[0].TargetSlug)
	require.Equal(t, "build-1", pub.events[0].BuildID)
}
