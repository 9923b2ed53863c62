package conn

// Scanner composes a TableReader and a Decoder into the per-tick
// pipeline: raw rows in, filtered records out.
type Scanner struct {
	Reader  TableReader
	Decoder *Decoder
}

// NewScanner builds a scanner over the standard /proc tables.
func NewScanner(filter Filter, report func(error)) *Scanner {
	return &Scanner{
		Reader:  NewProcReader(),
		Decoder: &Decoder{Filter: filter, Report: report},
	}
}

// Snapshot samples the given transports in order and returns the
// accepted records plus any reported read conditions. Transports are
// read sequentially, so passing TCP before TCP6 keeps IPv4 records
// ahead of IPv6 ones. Read failures on one transport never stop the
// others.
func (s *Scanner) Snapshot(transports ...Transport) ([]Connection, []error) {
	var conns []Connection
	var reported []error
	for _, t := range transports {
		lines, err := s.Reader.ReadTable(t)
		if err != nil {
			reported = append(reported, err)
			continue
		}
		conns = append(conns, s.Decoder.DecodeAll(t, lines)...)
	}
	return conns, reported
}
