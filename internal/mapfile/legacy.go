package mapfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const (
	defaultLegacyW = 64
	defaultLegacyH = 64
)

// pinCoordTokens is how many leading tokens of a unit/structure line may
// carry coordinates. Later tokens hold facing/health/mission fields.
const pinCoordTokens = 4

type xy struct{ x, y int }

type xywh struct{ x, y, w, h int }

// legacyScan collects every size and origin source seen in the file;
// precedence is applied once the whole file has been read.
type legacyScan struct {
	theater   *Theater
	size      *xy // [Map] Size, W,H or trailing W,H of X,Y,W,H
	local     *xywh
	headerWH  *xy
	start     *xy
	startPts  int
	waypoints []Waypoint
	units     []MapPin
	structs   []MapPin
}

func decodeLegacy(path string, r io.Reader) (*MapData, error) {
	var sc legacyScan
	section := ""

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(line[1 : len(line)-1])
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		sc.apply(section, strings.TrimSpace(k), strings.TrimSpace(v))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return sc.resolve(path)
}

func (sc *legacyScan) apply(section, key, val string) {
	lkey := strings.ToLower(key)
	switch section {
	case "map":
		switch lkey {
		case "theater":
			t := ParseTheater(val)
			sc.theater = &t
		case "size":
			switch nums := intList(val); len(nums) {
			case 2:
				sc.size = &xy{nums[0], nums[1]}
			case 4:
				sc.size = &xy{nums[2], nums[3]}
			}
		case "localsize":
			if nums := intList(val); len(nums) == 4 {
				sc.local = &xywh{nums[0], nums[1], nums[2], nums[3]}
			}
		}

	case "header":
		switch {
		case lkey == "numberstartingpoints":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				n = 0
			}
			sc.startPts = n
		case strings.HasPrefix(lkey, "waypoint"):
			sc.addWaypoint(val)
		case lkey == "width":
			sc.headerWH = mergeX(sc.headerWH, atoiOrZero(val))
		case lkey == "height":
			sc.headerWH = mergeY(sc.headerWH, atoiOrZero(val))
		case lkey == "startx":
			sc.start = mergeX(sc.start, atoiOrZero(val))
		case lkey == "starty":
			sc.start = mergeY(sc.start, atoiOrZero(val))
		}

	case "waypoints":
		// only the x,y encoding is understood; bare cell indices are skipped
		if isDigits(key) && strings.Contains(val, ",") {
			sc.addWaypoint(val)
		}

	case "units":
		if pin, ok := parsePinLine(val); ok {
			sc.units = append(sc.units, pin)
		}

	case "structures":
		if pin, ok := parsePinLine(val); ok {
			sc.structs = append(sc.structs, pin)
		}
	}
}

func (sc *legacyScan) addWaypoint(val string) {
	if nums := intList(val); len(nums) == 2 {
		sc.waypoints = append(sc.waypoints, Waypoint{X: nums[0], Y: nums[1]})
	}
}

func (sc *legacyScan) resolve(path string) (*MapData, error) {
	m := &MapData{
		Theater:           Unknown,
		Width:             defaultLegacyW,
		Height:            defaultLegacyH,
		NumStartingPoints: sc.startPts,
		Waypoints:         sc.waypoints,
		Units:             sc.units,
		Structures:        sc.structs,
	}
	if sc.theater != nil {
		m.Theater = *sc.theater
	}

	switch {
	case sc.local != nil:
		m.Width, m.Height = sc.local.w, sc.local.h
	case sc.size != nil:
		m.Width, m.Height = sc.size.x, sc.size.y
	case sc.headerWH != nil:
		m.Width, m.Height = sc.headerWH.x, sc.headerWH.y
	}
	if err := m.checkSize(path); err != nil {
		return nil, err
	}

	switch {
	case sc.start != nil:
		m.LocalOriginX, m.LocalOriginY = sc.start.x, sc.start.y
	case sc.local != nil:
		m.LocalOriginX, m.LocalOriginY = sc.local.x, sc.local.y
	}

	m.normalize()
	m.EnsureElevations()
	return m, nil
}

// parsePinLine reads a unit/structure value such as "GoodGuy,Tank,10,20,5".
// The last two integers among the first four tokens are the position, the
// first raw token is the owner and the second raw token is the kind unless
// it was consumed as a coordinate, in which case the kind is "Obj".
func parsePinLine(csv string) (MapPin, bool) {
	parts := strings.Split(csv, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	type num struct{ idx, v int }
	var coords []num
	for i, p := range parts {
		if i >= pinCoordTokens {
			break
		}
		if n, err := strconv.Atoi(p); err == nil {
			coords = append(coords, num{i, n})
		}
	}
	if len(coords) < 2 {
		return MapPin{}, false
	}
	cx, cy := coords[len(coords)-2], coords[len(coords)-1]

	pin := MapPin{X: cx.v, Y: cy.v, Owner: parts[0], Kind: "Obj"}
	if len(parts) > 1 && cx.idx != 1 && cy.idx != 1 {
		pin.Kind = parts[1]
	}
	return pin, true
}

func intList(s string) []int {
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func mergeX(p *xy, x int) *xy {
	if p == nil {
		return &xy{x: x}
	}
	return &xy{x: x, y: p.y}
}

func mergeY(p *xy, y int) *xy {
	if p == nil {
		return &xy{y: y}
	}
	return &xy{x: p.x, y: y}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
