package textenc

import "testing"

func TestFieldKeepsColumnsIntact(t *testing.T) {
	in := "Keeper's Dungeon, 100% evil\r\nsecond line"
	enc := Field(in)
	if enc != "Keeper's Dungeon%2C 100%25 evil%0D%0Asecond line" {
		t.Fatalf("Field = %q", enc)
	}
	got, err := Split(Line("save1.ret", enc, "3"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(got) != 3 || got[1] != in || got[2] != "3" {
		t.Fatalf("round trip: %q", got)
	}
}

func TestFullEncodesBoardText(t *testing.T) {
	enc := Full("beware, the dragon/lair?")
	if enc != "beware%2C%20the%20dragon%2Flair%3F" {
		t.Fatalf("Full = %q", enc)
	}
	dec, err := Decode(enc)
	if err != nil || dec != "beware, the dragon/lair?" {
		t.Fatalf("decode %q %v", dec, err)
	}
}

func TestFullEncodesSubDelimiters(t *testing.T) {
	in := "a$&+:=@;! b~c"
	enc := Full(in)
	if enc != "a%24%26%2B%3A%3D%40%3B%21%20b~c" {
		t.Fatalf("Full = %q", enc)
	}
	dec, err := Decode(enc)
	if err != nil || dec != in {
		t.Fatalf("decode %q %v", dec, err)
	}
}
