package youtube

import (
	"errors"
	"regexp"
	"strings"
)

// User-facing parse failures. The messages are returned verbatim to tool callers.
var (
	ErrInvalidVideoID    = errors.New("Invalid YouTube video ID or URL")    //nolint:staticcheck
	ErrInvalidChannelRef = errors.New("Invalid channel ID, handle, or URL") //nolint:staticcheck
)

// videoURLRE matches every URL shape that carries a video ID. The ID is captured
// as exactly 11 characters that stop at the next URL delimiter.
var videoURLRE = regexp.MustCompile(
	`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:.*&)?v=|embed/|v/|e/|shorts/|live/)|youtu\.be/)([^"&?/\s]{11})`,
)

var bareVideoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID extracts the canonical 11-char video ID from a raw ID or any
// YouTube video URL. ok is false when the input carries no video ID; that is a
// normal outcome, not an error.
func ParseVideoID(input string) (id string, ok bool) {
	if input == "" {
		return "", false
	}
	if m := videoURLRE.FindStringSubmatch(input); len(m) >= 2 {
		return m[1], true
	}
	if bareVideoIDRE.MatchString(input) {
		return input, true
	}
	return "", false
}

// ChannelRef is a canonical channel reference: either a Handle or a ChannelID.
// The interface is sealed so a type switch over the two variants is exhaustive.
type ChannelRef interface {
	channelRef()
	// String returns the canonical value (handle with its leading '@', or the raw ID).
	String() string
	// URL returns the public channel page URL.
	URL() string
}

// Handle is an @name channel handle. The leading '@' is always present.
type Handle string

// ChannelID is a 24-char channel identifier, conventionally prefixed "UC".
type ChannelID string

func (Handle) channelRef()    {}
func (ChannelID) channelRef() {}

func (h Handle) String() string { return string(h) }
func (id ChannelID) String() string { return string(id) }

func (h Handle) URL() string { return "https://www.youtube.com/" + string(h) }
func (id ChannelID) URL() string { return "https://www.youtube.com/channel/" + string(id) }

var (
	channelPathRE = regexp.MustCompile(`/channel/([A-Za-z0-9_-]+)`)
	legacyPathRE  = regexp.MustCompile(`/(?:c|user)/([A-Za-z0-9_-]+)`)
	handlePathRE  = regexp.MustCompile(`/@([A-Za-z0-9_-]+)`)
	directIDRE    = regexp.MustCompile(`^[A-Za-z0-9_-]{24}$`)
	ucIDRE        = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	bareHandleRE  = regexp.MustCompile(`^@[A-Za-z0-9_-]+$`)
	bareTokenRE   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ParseChannelRef turns a handle, legacy username, channel ID, or channel URL
// into a canonical ChannelRef. Rules are tried in order and the first match wins:
// URL shapes are checked before bare tokens, and 24-char IDs before the
// bare-token handle fallback. A video URL yields ok == false.
func ParseChannelRef(input string) (ref ChannelRef, ok bool) {
	if input == "" {
		return nil, false
	}
	if strings.HasPrefix(input, "@") {
		return Handle(input), true
	}
	if m := channelPathRE.FindStringSubmatch(input); len(m) >= 2 {
		return ChannelID(m[1]), true
	}
	if m := legacyPathRE.FindStringSubmatch(input); len(m) >= 2 {
		return Handle("@" + m[1]), true
	}
	if m := handlePathRE.FindStringSubmatch(input); len(m) >= 2 {
		return Handle("@" + m[1]), true
	}
	if directIDRE.MatchString(input) || ucIDRE.MatchString(input) {
		return ChannelID(input), true
	}
	if bareHandleRE.MatchString(input) {
		return Handle(input), true
	}
	if bareTokenRE.MatchString(input) {
		return Handle("@" + input), true
	}
	return nil, false
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
