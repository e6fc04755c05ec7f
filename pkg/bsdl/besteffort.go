package bsdl

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// PortDirection is the normalized direction of a BSDL PORT declaration.
type PortDirection string

const (
	DirIn      PortDirection = "in"
	DirOut     PortDirection = "out"
	DirInout   PortDirection = "inout"
	DirBuffer  PortDirection = "buffer"
	DirLinkage PortDirection = "linkage"
)

// PortDecl is one expanded entry of the BSDL PORT clause.
type PortDecl struct {
	Name      string
	Direction PortDirection
}

// TAPSignals names the port that serves each TAP signal, where known.
type TAPSignals struct {
	TCK, TMS, TDI, TDO, TRST string
}

// Data is the best-effort parsed BSDL document: BSDLData from the spec's
// data model. It is produced once by Parse/ParseString/ParseFile and never
// mutated afterward.
type Data struct {
	EntityName      string
	PhysicalPinMap  string
	IDCode          uint32
	IRLength        int
	BSRLength       int
	Ports           []PortDecl
	PinMaps         map[string][]string
	Instructions    map[string]string // name -> opcode bit string (first occurrence)
	BoundaryCells   []BoundaryCell
	TAP             TAPSignals
}

// Parse reads a BSDL file from disk and runs the best-effort extractor on
// it. A missing or unreadable file is the only condition that fails hard;
// malformed sections degrade to zero values within the returned Data.
func Parse(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bsdl: read %s: %w", path, err)
	}
	return ParseString(string(raw)), nil
}

// ParseFile is an alias for Parse kept for symmetry with the strict parser's
// ParseFile method.
func ParseFile(path string) (*Data, error) {
	return Parse(path)
}

// ParseString runs the best-effort extractor over BSDL source text. It never
// returns an error: every section parser degrades to its zero value on a
// malformed or missing section.
func ParseString(text string) *Data {
	norm := normalize(text)

	d := &Data{
		PinMaps:      make(map[string][]string),
		Instructions: make(map[string]string),
	}

	d.EntityName = extractEntityName(norm)
	d.PhysicalPinMap = extractGenericPackage(norm)
	d.Ports = extractPorts(norm)
	d.BSRLength, _ = extractIntAttr(norm, "BOUNDARY_LENGTH")
	d.IRLength, _ = extractIntAttr(norm, "INSTRUCTION_LENGTH")
	d.Instructions = extractInstructions(norm)
	d.PinMaps = extractPinMap(norm)
	d.BoundaryCells = extractBoundaryCells(norm)
	d.IDCode = extractIDCode(norm)
	d.TAP = extractTAPSignals(norm)

	return d
}

// normalize implements the spec's preprocessing step: strip VHDL comments,
// fold to upper case, replace tabs/newlines with spaces.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range strings.Split(text, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte(' ')
	}
	s := strings.ToUpper(b.String())
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

var entityRegexp = regexp.MustCompile(`\bENTITY\s+(\w+)\s+IS\b`)

func extractEntityName(norm string) string {
	m := entityRegexp.FindStringSubmatch(norm)
	if m == nil {
		return ""
	}
	return m[1]
}

var genericRegexp = regexp.MustCompile(`\bGENERIC\s*\([^)]*:=\s*"([^"]*)"`)

func extractGenericPackage(norm string) string {
	m := genericRegexp.FindStringSubmatch(norm)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractIntAttr(norm, keyword string) (int, bool) {
	re := regexp.MustCompile(`\b` + keyword + `\b[^;]*\bIS\s+(\d+)`)
	m := re.FindStringSubmatch(norm)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractConcatenatedPayload finds the keyword, then the first quoted
// segment after it up to the terminating ';', stripping quotes and VHDL '&'
// concatenation so multi-line attribute strings read as one token stream.
func extractConcatenatedPayload(norm, keyword string) (string, bool) {
	re := regexp.MustCompile(`\b` + keyword + `\b`)
	loc := re.FindStringIndex(norm)
	if loc == nil {
		return "", false
	}
	rest := norm[loc[1]:]
	end := strings.IndexByte(rest, ';')
	if end < 0 {
		end = len(rest)
	}
	segment := rest[:end]
	q := strings.IndexByte(segment, '"')
	if q < 0 {
		return "", false
	}
	payload := segment[q:]
	payload = strings.ReplaceAll(payload, `"`, "")
	payload = strings.ReplaceAll(payload, "&", " ")
	payload = strings.Join(strings.Fields(payload), " ")
	if payload == "" {
		return "", false
	}
	return payload, true
}

func extractInstructions(norm string) map[string]string {
	out := make(map[string]string)
	payload, ok := extractConcatenatedPayload(norm, "INSTRUCTION_OPCODE")
	if !ok {
		return out
	}
	for _, ins := range GetInstructionsFromString(payload) {
		if _, seen := out[ins.Name]; !seen {
			out[ins.Name] = ins.Opcode
		}
	}
	return out
}

// GetInstructionsFromString mirrors GetInstructions but operates directly on
// an already-concatenated payload string rather than a strict-mode AST
// Expression. It applies the same "NAME (OPCODE), ..." splitting rules as
// GetInstructions, which keeps its own copy of the loop.
func GetInstructionsFromString(payload string) []Instruction {
	var out []Instruction
	for _, part := range strings.Split(payload, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		open := strings.Index(part, "(")
		closeIdx := strings.Index(part, ")")
		if open > 0 && closeIdx > open {
			name := strings.TrimSpace(part[:open])
			opcode := strings.TrimSpace(part[open+1 : closeIdx])
			out = append(out, Instruction{Name: name, Opcode: opcode})
		}
	}
	return out
}

func extractPinMap(norm string) map[string][]string {
	out := make(map[string][]string)
	payload, ok := extractConcatenatedPayload(norm, "PIN_MAP_STRING")
	if !ok {
		return out
	}
	// Split on top-level commas only, so "B : (P1, P2)" stays one entry.
	var entries []string
	depth, from := 0, 0
	for i, r := range payload {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				entries = append(entries, payload[from:i])
				from = i + 1
			}
		}
	}
	entries = append(entries, payload[from:])
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		colon := strings.Index(entry, ":")
		if colon < 0 {
			continue
		}
		logical := strings.TrimSpace(entry[:colon])
		phys := strings.TrimSpace(entry[colon+1:])
		phys = strings.Trim(phys, "()")
		var pads []string
		for _, p := range strings.Split(phys, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				pads = append(pads, p)
			}
		}
		if logical != "" && len(pads) > 0 {
			out[logical] = append(out[logical], pads...)
		}
	}
	return out
}

func extractBoundaryCells(norm string) []BoundaryCell {
	payload, ok := extractConcatenatedPayload(norm, "BOUNDARY_REGISTER")
	if !ok {
		return nil
	}
	matches := boundaryEntryRegexp.FindAllStringSubmatch(payload, -1)
	cells := make([]BoundaryCell, 0, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(strings.TrimSpace(m[1]))
		if err != nil {
			continue
		}
		fields := splitAndTrim(m[2])
		if len(fields) < 3 {
			continue
		}
		cell := BoundaryCell{
			Number:   idx,
			CellType: fields[0],
			Port:     fields[1],
			Function: fields[2],
			Control:  -1,
			Disable:  -1,
		}
		if len(fields) >= 4 {
			cell.Safe = fields[3]
		}
		if len(fields) >= 5 {
			if v, ok := parseOptionalInt(fields[4]); ok {
				cell.Control = v
			}
		}
		if len(fields) >= 6 {
			if v, ok := parseOptionalInt(fields[5]); ok {
				cell.Disable = v
			}
		}
		if len(fields) >= 7 {
			cell.Result = fields[6]
		}
		cells = append(cells, cell)
	}
	sortBoundaryCells(cells)
	return cells
}

func extractIDCode(norm string) uint32 {
	payload, ok := extractConcatenatedPayload(norm, "IDCODE_REGISTER")
	if !ok {
		return 0
	}
	var bits strings.Builder
	for _, r := range payload {
		if r == '0' || r == '1' {
			bits.WriteRune(r)
		}
	}
	s := bits.String()
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 2, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

var tapScanRegexp = regexp.MustCompile(`\bTAP_SCAN_(CLOCK|MODE|IN|OUT|RESET)\b\s+OF\s+(\w+)\s*:`)

func extractTAPSignals(norm string) TAPSignals {
	var tap TAPSignals
	for _, m := range tapScanRegexp.FindAllStringSubmatch(norm, -1) {
		switch m[1] {
		case "CLOCK":
			tap.TCK = m[2]
		case "MODE":
			tap.TMS = m[2]
		case "IN":
			tap.TDI = m[2]
		case "OUT":
			tap.TDO = m[2]
		case "RESET":
			tap.TRST = m[2]
		}
	}
	return tap
}

var rangeRegexp = regexp.MustCompile(`\(\s*(\d+)\s+(DOWNTO|TO)\s+(\d+)\s*\)`)

func extractPorts(norm string) []PortDecl {
	idx := indexOfWord(norm, "PORT")
	if idx < 0 {
		return nil
	}
	open := strings.IndexByte(norm[idx:], '(')
	if open < 0 {
		return nil
	}
	start := idx + open
	body, _ := extractBalanced(norm, start)

	var ports []PortDecl
	for _, decl := range strings.Split(body, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		colon := strings.Index(decl, ":")
		if colon < 0 {
			continue
		}
		names := strings.Split(decl[:colon], ",")
		rest := strings.TrimSpace(decl[colon+1:])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		dir := normalizeDirection(fields[0])
		typeSpec := rest[len(fields[0]):]

		if m := rangeRegexp.FindStringSubmatch(typeSpec); m != nil {
			first, _ := strconv.Atoi(m[1])
			last, _ := strconv.Atoi(m[3])
			descending := m[2] == "DOWNTO"
			for _, n := range names {
				n = strings.TrimSpace(n)
				if n == "" {
					continue
				}
				if descending {
					for i := first; i >= last; i-- {
						ports = append(ports, PortDecl{Name: fmt.Sprintf("%s(%d)", n, i), Direction: dir})
					}
				} else {
					for i := first; i <= last; i++ {
						ports = append(ports, PortDecl{Name: fmt.Sprintf("%s(%d)", n, i), Direction: dir})
					}
				}
			}
			continue
		}

		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			ports = append(ports, PortDecl{Name: n, Direction: dir})
		}
	}
	return ports
}

func normalizeDirection(s string) PortDirection {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN":
		return DirIn
	case "OUT":
		return DirOut
	case "INOUT":
		return DirInout
	case "BUFFER":
		return DirBuffer
	case "LINKAGE":
		return DirLinkage
	default:
		return DirLinkage
	}
}

func indexOfWord(text, word string) int {
	re := regexp.MustCompile(`\b` + word + `\b`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func extractBalanced(text string, start int) (string, int) {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[start+1 : i], i + 1
			}
		}
	}
	return text[start+1:], len(text)
}

func sortBoundaryCells(cells []BoundaryCell) {
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0 && cells[j-1].Number > cells[j].Number; j-- {
			cells[j-1], cells[j] = cells[j], cells[j-1]
		}
	}
}
