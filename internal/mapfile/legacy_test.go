package mapfile

import (
	"errors"
	"strings"
	"testing"
)

func decodeLegacyString(t *testing.T, src string) *MapData {
	t.Helper()
	m, err := Decode("test.map", strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestLegacyLocalSizeBeatsSize(t *testing.T) {
	m := decodeLegacyString(t, `
[Map]
Size=1,2,3,4
LocalSize=5,6,7,8
`)
	if m.Width != 7 || m.Height != 8 {
		t.Fatalf("size = %dx%d, want 7x8", m.Width, m.Height)
	}
	if m.LocalOriginX != 5 || m.LocalOriginY != 6 {
		t.Fatalf("origin = (%d,%d), want (5,6)", m.LocalOriginX, m.LocalOriginY)
	}
}

func TestLegacySizeForms(t *testing.T) {
	cases := []struct {
		name string
		size string
		w, h int
	}{
		{"two numbers", "30,40", 30, 40},
		{"four numbers use trailing pair", "1,2,30,40", 30, 40},
		{"three numbers ignored", "1,30,40", 64, 64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := decodeLegacyString(t, "[Map]\nSize="+c.size+"\n")
			if m.Width != c.w || m.Height != c.h {
				t.Fatalf("size = %dx%d, want %dx%d", m.Width, m.Height, c.w, c.h)
			}
		})
	}
}

func TestLegacyHeaderSizeFallback(t *testing.T) {
	m := decodeLegacyString(t, `
[Header]
Width=10
; something in between
Height=20
`)
	if m.Width != 10 || m.Height != 20 {
		t.Fatalf("size = %dx%d, want 10x20", m.Width, m.Height)
	}
}

func TestLegacyDefaults(t *testing.T) {
	m := decodeLegacyString(t, "[Basic]\nName=Nothing\n")
	if m.Width != 64 || m.Height != 64 {
		t.Fatalf("size = %dx%d, want 64x64", m.Width, m.Height)
	}
	if m.Theater != Unknown {
		t.Fatalf("theater = %v, want unknown", m.Theater)
	}
	if m.LocalOriginX != 0 || m.LocalOriginY != 0 {
		t.Fatalf("origin = (%d,%d)", m.LocalOriginX, m.LocalOriginY)
	}
	if len(m.Elevations) != 64*64 {
		t.Fatalf("elevations = %d", len(m.Elevations))
	}
}

func TestLegacyStartBeatsLocalSizeOrigin(t *testing.T) {
	m := decodeLegacyString(t, `
[Map]
LocalSize=1,2,30,30
[Header]
StartX=5
StartY=6
`)
	if m.LocalOriginX != 5 || m.LocalOriginY != 6 {
		t.Fatalf("origin = (%d,%d), want (5,6)", m.LocalOriginX, m.LocalOriginY)
	}
	if m.Width != 30 || m.Height != 30 {
		t.Fatalf("size = %dx%d", m.Width, m.Height)
	}
}

func TestLegacyInvalidSize(t *testing.T) {
	_, err := Decode("maps/bad.map", strings.NewReader("[Map]\nSize=0,0\n"))
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
	if !strings.Contains(err.Error(), "maps/bad.map") {
		t.Fatalf("error %q does not name the path", err)
	}

	_, err = Decode("h.map", strings.NewReader("[Header]\nWidth=12\n"))
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("header width without height: err = %v", err)
	}
}

func TestLegacyOversizedRejected(t *testing.T) {
	cases := map[string]string{
		"huge size":       "[Map]\nSize=0,0,3000000000,3000000000\n",
		"huge local size": "[Map]\nLocalSize=0,0,9000000,2\n",
		"side too long":   "[Header]\nWidth=4097\nHeight=1\n",
		"too many tiles":  "[Map]\nSize=4096,4096\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := Decode("big.map", strings.NewReader(src))
			if !errors.Is(err, ErrInvalidSize) {
				t.Fatalf("err = %v, want ErrInvalidSize", err)
			}
			if m != nil {
				t.Fatalf("got a document: %dx%d", m.Width, m.Height)
			}
		})
	}

	m, err := Decode("edge.map", strings.NewReader("[Map]\nSize=4096,1024\n"))
	if err != nil {
		t.Fatalf("largest allowed size: %v", err)
	}
	if len(m.Elevations) != MaxTiles {
		t.Fatalf("elevations = %d, want %d", len(m.Elevations), MaxTiles)
	}
}

func TestLegacyTheater(t *testing.T) {
	cases := map[string]Theater{
		"TEMPERATE": Temperate,
		"Snow":      Snow,
		"New Urban": NewUrban,
		"NEWURBAN":  NewUrban,
		"desert":    Desert,
		"Jungle":    Unknown,
	}
	for in, want := range cases {
		m := decodeLegacyString(t, "[MAP]\nTheater= "+in+" \n")
		if m.Theater != want {
			t.Errorf("Theater=%s -> %v, want %v", in, m.Theater, want)
		}
	}
}

func TestLegacyWaypoints(t *testing.T) {
	m := decodeLegacyString(t, `
[Header]
NumberStartingPoints=2
Waypoint1=10,11
Waypoint2=12,13
[Waypoints]
0=14,15
1=3210
x=16,17
`)
	want := []Waypoint{{10, 11}, {12, 13}, {14, 15}}
	if len(m.Waypoints) != len(want) {
		t.Fatalf("waypoints = %v, want %v", m.Waypoints, want)
	}
	for i := range want {
		if m.Waypoints[i] != want[i] {
			t.Fatalf("waypoints = %v, want %v", m.Waypoints, want)
		}
	}
	if m.NumStartingPoints != 2 || len(m.StartingPoints()) != 2 {
		t.Fatalf("starting points = %d", m.NumStartingPoints)
	}
}

func TestLegacyNumberStartingPointsUnparsable(t *testing.T) {
	m := decodeLegacyString(t, "[Header]\nNumberStartingPoints=lots\n")
	if m.NumStartingPoints != 0 {
		t.Fatalf("starting points = %d, want 0", m.NumStartingPoints)
	}
}

func TestParsePinLine(t *testing.T) {
	cases := []struct {
		in   string
		want MapPin
		ok   bool
	}{
		{"GoodGuy,Tank,10,20,5", MapPin{X: 10, Y: 20, Owner: "GoodGuy", Kind: "Tank"}, true},
		{"7,8", MapPin{X: 7, Y: 8, Owner: "7", Kind: "Obj"}, true},
		{"BadGuy, MTNK , 3, 4, 256, Guard", MapPin{X: 3, Y: 4, Owner: "BadGuy", Kind: "MTNK"}, true},
		{"Neutral,5,6", MapPin{X: 5, Y: 6, Owner: "Neutral", Kind: "Obj"}, true},
		// integers past the fourth token are never coordinates
		{"A,B,1,2,3,4", MapPin{X: 1, Y: 2, Owner: "A", Kind: "B"}, true},
		{"A,1,2,x,3,4", MapPin{X: 1, Y: 2, Owner: "A", Kind: "Obj"}, true},
		{"GoodGuy,Tank,10", MapPin{}, false},
		{"", MapPin{}, false},
	}
	for _, c := range cases {
		got, ok := parsePinLine(c.in)
		if ok != c.ok {
			t.Errorf("parsePinLine(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("parsePinLine(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestLegacyUnitsAndStructures(t *testing.T) {
	m := decodeLegacyString(t, `
[Units]
0=GoodGuy,Tank,10,20,5
1=broken
[STRUCTURES]
0=BadGuy,FACT,30,31
`)
	if len(m.Units) != 1 || m.Units[0].Kind != "Tank" {
		t.Fatalf("units = %+v", m.Units)
	}
	if len(m.Structures) != 1 || m.Structures[0].X != 30 || m.Structures[0].Y != 31 {
		t.Fatalf("structures = %+v", m.Structures)
	}
}

func TestLegacyIgnoresCommentsAndJunk(t *testing.T) {
	m := decodeLegacyString(t, `
; header comment
[Map]
not a key value line
Size = 12 , 14
`)
	if m.Width != 12 || m.Height != 14 {
		t.Fatalf("size = %dx%d", m.Width, m.Height)
	}
}

func TestSaveLegacyRefused(t *testing.T) {
	err := Save("x.MAP", Blank(2, 2))
	if !errors.Is(err, ErrReadOnlyFormat) {
		t.Fatalf("err = %v, want ErrReadOnlyFormat", err)
	}
}
