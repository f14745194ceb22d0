package domain

// SummaryKind enumerates the outcomes of looking a slug up. The set is
// closed; the zero value is not a valid kind.
type SummaryKind uint8

const (
	// DestinationFound: the slug matched a live destination directly.
	DestinationFound SummaryKind = iota + 1
	// DestinationGone: the matched destination is soft-deleted. Alias is set
	// when the match went through an alias.
	DestinationGone
	// AliasFound: the slug matched a live alias of a live destination.
	AliasFound
	// AliasGone: the slug matched a soft-deleted alias of a live destination.
	AliasGone
)

// String implements fmt.Stringer.
func (k SummaryKind) String() string {
	switch k {
	case DestinationFound:
		return "destination_found"
	case DestinationGone:
		return "destination_gone"
	case AliasFound:
		return "alias_found"
	case AliasGone:
		return "alias_gone"
	default:
		return "unknown"
	}
}

// Summary is the resolution of a slug as cached by the redirect path. The
// embedded destination and alias are snapshots taken at fetch time and must
// not be mutated once the summary is shared.
//
// A nil *Summary means the slug matched nothing.
type Summary struct {
	Kind        SummaryKind
	Destination Destination
	Alias       *Alias
}

// NewDestinationFound returns a DestinationFound summary.
func NewDestinationFound(d Destination) *Summary {
	return &Summary{Kind: DestinationFound, Destination: d}
}

// NewDestinationGone returns a DestinationGone summary; alias may be nil.
func NewDestinationGone(d Destination, a *Alias) *Summary {
	return &Summary{Kind: DestinationGone, Destination: d, Alias: a}
}

// NewAliasFound returns an AliasFound summary.
func NewAliasFound(a Alias, d Destination) *Summary {
	return &Summary{Kind: AliasFound, Destination: d, Alias: &a}
}

// NewAliasGone returns an AliasGone summary.
func NewAliasGone(a Alias, d Destination) *Summary {
	return &Summary{Kind: AliasGone, Destination: d, Alias: &a}
}

// IsGone reports whether the slug should answer 410.
func (s *Summary) IsGone() bool {
	return s.Kind == DestinationGone || s.Kind == AliasGone
}

// AliasID returns the alias ID when the match went through an alias.
func (s *Summary) AliasID() *string {
	if s.Alias == nil {
		return nil
	}
	id := s.Alias.ID
	return &id
}
