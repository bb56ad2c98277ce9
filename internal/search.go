package internal

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// SearchMode selects the matching semantics of a query
type SearchMode string

const (
	SearchSmart SearchMode = "smart"
	SearchExact SearchMode = "exact"
	SearchRegex SearchMode = "regex"
)

// ParseSearchMode converts a mode name. An empty name is SearchSmart.
func ParseSearchMode(name string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(name))) {
	case "", SearchSmart:
		return SearchSmart, nil
	case SearchExact:
		return SearchExact, nil
	case SearchRegex:
		return SearchRegex, nil
	default:
		return SearchSmart, fmt.Errorf("unknown search mode: %s (supported: smart, exact, regex)", name)
	}
}

// Speaker restricts which event roles a search considers
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
	SpeakerBoth      Speaker = "both"
)

// ParseSpeaker converts a speaker name. An empty name is SpeakerBoth.
func ParseSpeaker(name string) (Speaker, error) {
	switch Speaker(strings.ToLower(strings.TrimSpace(name))) {
	case "", SpeakerBoth:
		return SpeakerBoth, nil
	case SpeakerUser:
		return SpeakerUser, nil
	case SpeakerAssistant:
		return SpeakerAssistant, nil
	default:
		return SpeakerBoth, fmt.Errorf("unknown speaker: %s (supported: user, assistant, both)", name)
	}
}

func (s Speaker) accepts(role Role) bool {
	switch s {
	case SpeakerUser:
		return role == RoleUser
	case SpeakerAssistant:
		return role == RoleAssistant
	default:
		return true
	}
}

// SessionEvent is an event tagged with its place in a session
type SessionEvent struct {
	SessionID string
	Position  int
	Event     NormalizedEvent
}

// EventRef identifies an event by session and position
type EventRef struct {
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
}

// SearchResult is one ranked match
type SearchResult struct {
	Ref       EventRef `json:"ref"`
	Relevance float64  `json:"relevance"`
	Snippet   string   `json:"snippet"`
	Speaker   Role     `json:"speaker"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// SearchOptions controls a single Search call
type SearchOptions struct {
	Mode              SearchMode
	Speaker           Speaker
	CaseSensitive     bool
	ContextChars      int
	MaxResults        int // <= 0 means unlimited
	IncludeToolBlocks bool
}

// DefaultSearchOptions returns the options used by the search command
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Mode:         SearchSmart,
		Speaker:      SpeakerBoth,
		ContextChars: 150,
		MaxResults:   30,
	}
}

const (
	coverageWeight   = 0.6
	phraseWeight     = 0.3
	maxRecencyWeight = 0.05
	cancelCheckEvery = 256
	snippetEllipsis  = "..."
)

// span is a match location in rune offsets
type span struct {
	start, end int
}

// matchInfo describes how one event matched a query
type matchInfo struct {
	span     span
	coverage float64
	phrase   bool
}

type matcher interface {
	match(text string) (matchInfo, bool)
}

// Search runs one query over events in a single forward pass. Results are
// ordered by relevance, then newest timestamp, then session and position.
func Search(ctx context.Context, events iter.Seq[SessionEvent], query string, opts SearchOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	m, err := newMatcher(query, opts)
	if err != nil {
		return nil, err
	}

	var (
		hits    []candidate
		scanned int
		iterErr error
	)
	for se := range events {
		scanned++
		if scanned%cancelCheckEvery == 0 {
			if iterErr = ctx.Err(); iterErr != nil {
				break
			}
		}
		if !opts.Speaker.accepts(se.Event.Role) {
			continue
		}
		text := searchableText(se.Event, opts.IncludeToolBlocks)
		if text == "" {
			continue
		}
		info, ok := m.match(text)
		if !ok {
			continue
		}
		hits = append(hits, newCandidate(se, text, info))
	}
	if iterErr != nil {
		return nil, iterErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scoreCandidates(hits, opts.Mode, m)
	sortCandidates(hits)
	if opts.MaxResults > 0 && len(hits) > opts.MaxResults {
		hits = hits[:opts.MaxResults]
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			Ref:       EventRef{SessionID: h.sessionID, Position: h.position},
			Relevance: h.relevance,
			Snippet:   buildSnippet(h.text, h.info.span, opts.ContextChars),
			Speaker:   h.role,
			Timestamp: h.timestamp,
		})
	}
	return results, nil
}

// searchableText joins the text blocks of an event. With tools, thinking,
// tool calls and tool results are appended in block order.
func searchableText(ev NormalizedEvent, includeTools bool) string {
	parts := make([]string, 0, len(ev.Content))
	for _, b := range ev.Content {
		var s string
		switch b.Kind {
		case BlockText:
			s = b.Text
		case BlockThinking, BlockToolResult:
			if includeTools {
				s = b.Text
			}
		case BlockToolUse:
			if includeTools {
				s = strings.TrimSpace(b.ToolName + " " + compactJSON(b.ToolInput))
			}
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func newMatcher(query string, opts SearchOptions) (matcher, error) {
	switch opts.Mode {
	case SearchRegex:
		pattern := query
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &QueryCompileError{Query: query, Err: err}
		}
		return regexMatcher{re: re}, nil
	case SearchExact:
		return newExactMatcher(query, opts.CaseSensitive), nil
	default:
		sm := newSmartMatcher(query, opts.CaseSensitive, opts.ContextChars)
		if len(sm.terms) == 0 {
			// Query without letters or digits: match it literally
			return newExactMatcher(query, opts.CaseSensitive), nil
		}
		return sm, nil
	}
}

type exactMatcher struct {
	literal string
	re      *regexp.Regexp
}

func newExactMatcher(query string, caseSensitive bool) exactMatcher {
	if caseSensitive {
		return exactMatcher{literal: query}
	}
	// Decoded text is valid UTF-8; invalid query bytes can only match U+FFFD
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(strings.ToValidUTF8(query, "\uFFFD")))
	if err != nil {
		return exactMatcher{literal: query}
	}
	return exactMatcher{re: re}
}

func (m exactMatcher) match(text string) (matchInfo, bool) {
	if m.re != nil {
		return regexMatcher{re: m.re}.match(text)
	}
	i := strings.Index(text, m.literal)
	if i < 0 {
		return matchInfo{}, false
	}
	return matchInfo{span: byteSpan(text, i, i+len(m.literal)), coverage: 1}, true
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) match(text string) (matchInfo, bool) {
	loc := m.re.FindStringIndex(text)
	if loc == nil {
		return matchInfo{}, false
	}
	return matchInfo{span: byteSpan(text, loc[0], loc[1]), coverage: 1}, true
}

func byteSpan(text string, start, end int) span {
	runeStart := utf8.RuneCountInString(text[:start])
	return span{start: runeStart, end: runeStart + utf8.RuneCountInString(text[start:end])}
}

// token is a letter/digit run with rune offsets into the source text
type token struct {
	term       string
	start, end int
}

// tokenize splits text into letter/digit runs, folding each with fold
func tokenize(text string, fold func(string) string) []token {
	var (
		tokens    []token
		runeIdx   int
		byteStart = -1
		runeStart int
	)
	flush := func(byteEnd int) {
		if byteStart >= 0 {
			tokens = append(tokens, token{term: fold(text[byteStart:byteEnd]), start: runeStart, end: runeIdx})
			byteStart = -1
		}
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if byteStart < 0 {
				byteStart = i
				runeStart = runeIdx
			}
		} else {
			flush(i)
		}
		runeIdx++
	}
	flush(len(text))
	return tokens
}

type smartMatcher struct {
	fold    func(string) string
	terms   []string       // distinct, in query order
	termIdx map[string]int // term -> index in terms
	phrase  []string       // full query token sequence
	window  int
}

func newSmartMatcher(query string, caseSensitive bool, contextChars int) *smartMatcher {
	fold := func(s string) string { return s }
	if !caseSensitive {
		caser := cases.Fold()
		fold = caser.String
	}

	m := &smartMatcher{fold: fold, termIdx: make(map[string]int), window: contextChars}
	for _, tok := range tokenize(query, fold) {
		m.phrase = append(m.phrase, tok.term)
		if _, seen := m.termIdx[tok.term]; !seen {
			m.termIdx[tok.term] = len(m.terms)
			m.terms = append(m.terms, tok.term)
		}
	}
	return m
}

func (m *smartMatcher) match(text string) (matchInfo, bool) {
	tokens := tokenize(text, m.fold)

	found := make([]bool, len(m.terms))
	distinct := 0
	var occurrences []int // indexes into tokens
	for i, tok := range tokens {
		idx, ok := m.termIdx[tok.term]
		if !ok {
			continue
		}
		occurrences = append(occurrences, i)
		if !found[idx] {
			found[idx] = true
			distinct++
		}
	}
	if distinct == 0 {
		return matchInfo{}, false
	}

	info := matchInfo{coverage: float64(distinct) / float64(len(m.terms))}
	if distinct == len(m.terms) {
		if at := m.findPhrase(tokens); at >= 0 {
			info.phrase = true
			info.span = span{start: tokens[at].start, end: tokens[at+len(m.phrase)-1].end}
			return info, true
		}
	}
	info.span = m.densestWindow(tokens, occurrences)
	return info, true
}

// findPhrase returns the token index where the query sequence starts, or -1
func (m *smartMatcher) findPhrase(tokens []token) int {
	n := len(m.phrase)
	for i := 0; i+n <= len(tokens); i++ {
		ok := true
		for j := 0; j < n; j++ {
			if tokens[i+j].term != m.phrase[j] {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

// densestWindow picks the earliest run of occurrences fitting in the
// context window that covers the most distinct terms.
func (m *smartMatcher) densestWindow(tokens []token, occurrences []int) span {
	best := span{start: tokens[occurrences[0]].start, end: tokens[occurrences[0]].end}
	bestCount := 0
	for i, oi := range occurrences {
		seen := make(map[string]struct{}, len(m.terms))
		end := tokens[oi].end
		for _, oj := range occurrences[i:] {
			if oj != oi && tokens[oj].end-tokens[oi].start > m.window {
				break
			}
			seen[tokens[oj].term] = struct{}{}
			end = tokens[oj].end
		}
		if len(seen) > bestCount {
			bestCount = len(seen)
			best = span{start: tokens[oi].start, end: end}
		}
	}
	return best
}

type candidate struct {
	sessionID string
	position  int
	role      Role
	timestamp string
	time      time.Time
	hasTime   bool
	text      string
	info      matchInfo
	relevance float64
}

func newCandidate(se SessionEvent, text string, info matchInfo) candidate {
	c := candidate{
		sessionID: se.SessionID,
		position:  se.Position,
		role:      se.Event.Role,
		timestamp: se.Event.Timestamp,
		text:      text,
		info:      info,
	}
	if c.timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, c.timestamp); err == nil {
			c.time = t
			c.hasTime = true
		}
	}
	return c
}

// scoreCandidates assigns relevance. Exact and regex matches all score 1.0.
// Smart matches score coverage and phrase presence, with a recency bonus
// smaller than the gap between two coverage levels.
func scoreCandidates(hits []candidate, mode SearchMode, m matcher) {
	sm, ok := m.(*smartMatcher)
	if mode != SearchSmart || !ok {
		for i := range hits {
			hits[i].relevance = 1.0
		}
		return
	}

	var oldest, newest time.Time
	haveRange := false
	for _, h := range hits {
		if !h.hasTime {
			continue
		}
		if !haveRange || h.time.Before(oldest) {
			oldest = h.time
		}
		if !haveRange || h.time.After(newest) {
			newest = h.time
		}
		haveRange = true
	}
	spread := newest.Sub(oldest)

	recencyWeight := min(maxRecencyWeight, phraseWeight/float64(len(sm.terms)))
	for i := range hits {
		h := &hits[i]
		score := coverageWeight * h.info.coverage
		if h.info.phrase {
			score += phraseWeight
		}
		if h.hasTime && spread > 0 {
			score += recencyWeight * float64(h.time.Sub(oldest)) / float64(spread)
		}
		h.relevance = score
	}
}

func sortCandidates(hits []candidate) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
		if c := compareTimestamps(a, b); c != 0 {
			return c > 0
		}
		if a.sessionID != b.sessionID {
			return a.sessionID < b.sessionID
		}
		return a.position < b.position
	})
}

// compareTimestamps orders newer first. Unparseable timestamps sort after
// parsed ones and among themselves by string; absent ones sort last.
func compareTimestamps(a, b candidate) int {
	switch {
	case a.timestamp == "" && b.timestamp == "":
		return 0
	case a.timestamp == "":
		return -1
	case b.timestamp == "":
		return 1
	case a.hasTime && b.hasTime:
		return a.time.Compare(b.time)
	case a.hasTime:
		return 1
	case b.hasTime:
		return -1
	default:
		return strings.Compare(a.timestamp, b.timestamp)
	}
}

// buildSnippet returns the match widened by contextChars/2 runes on each
// side, clipped to the text with "..." where clipped.
func buildSnippet(text string, s span, contextChars int) string {
	runes := []rune(text)
	half := max(contextChars, 0) / 2
	from := max(s.start-half, 0)
	to := min(s.end+half, len(runes))
	if from > to {
		from = to
	}

	var sb strings.Builder
	if from > 0 {
		sb.WriteString(snippetEllipsis)
	}
	sb.WriteString(flattenNewlines(string(runes[from:to])))
	if to < len(runes) {
		sb.WriteString(snippetEllipsis)
	}
	return sb.String()
}

func flattenNewlines(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
