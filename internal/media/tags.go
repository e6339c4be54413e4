package media

// TagBundle holds optional stream metadata. Every field is a pointer (or a
// byte slice) so that "no value" survives marshalling and adapter boundaries
// without collapsing into an empty string or zero.
type TagBundle struct {
	Title       *string `toml:"title,omitempty"`
	Artist      *string `toml:"artist,omitempty"`
	Album       *string `toml:"album,omitempty"`
	AlbumArtist *string `toml:"album_artist,omitempty"`
	Genre       *string `toml:"genre,omitempty"`
	Year        *int    `toml:"year,omitempty"`
	TrackNumber *int    `toml:"track_number,omitempty"`
	DiscNumber  *int    `toml:"disc_number,omitempty"`
	Artwork     []byte  `toml:"-"`
}

// StringTag wraps a value for assignment to an optional tag field.
func StringTag(value string) *string { return &value }

// IntTag wraps a value for assignment to an optional numeric tag field.
func IntTag(value int) *int { return &value }

// IsZero reports whether no tag carries a value. A present-but-empty string
// still counts as a value.
func (b TagBundle) IsZero() bool {
	return b.Title == nil && b.Artist == nil && b.Album == nil &&
		b.AlbumArtist == nil && b.Genre == nil && b.Year == nil &&
		b.TrackNumber == nil && b.DiscNumber == nil && len(b.Artwork) == 0
}

// Clone returns a deep copy so callers can hold a bundle without aliasing
// the producer's pointers.
func (b TagBundle) Clone() TagBundle {
	out := TagBundle{}
	out.Title = cloneString(b.Title)
	out.Artist = cloneString(b.Artist)
	out.Album = cloneString(b.Album)
	out.AlbumArtist = cloneString(b.AlbumArtist)
	out.Genre = cloneString(b.Genre)
	out.Year = cloneInt(b.Year)
	out.TrackNumber = cloneInt(b.TrackNumber)
	out.DiscNumber = cloneInt(b.DiscNumber)
	if len(b.Artwork) > 0 {
		out.Artwork = make([]byte, len(b.Artwork))
		copy(out.Artwork, b.Artwork)
	}
	return out
}

// Field returns the named string tag and whether it is present. It exists so
// declarative checks can address tags without reflection.
func (b TagBundle) Field(name string) (string, bool) {
	var ptr *string
	switch name {
	case "title":
		ptr = b.Title
	case "artist":
		ptr = b.Artist
	case "album":
		ptr = b.Album
	case "album_artist":
		ptr = b.AlbumArtist
	case "genre":
		ptr = b.Genre
	default:
		return "", false
	}
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
