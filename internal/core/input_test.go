package core

import "testing"

func TestPlayerInputEffective(t *testing.T) {
	all := InputLeftUp | InputLeftDown | InputRightUp | InputRightDown

	tests := []struct {
		name     string
		in       PlayerInput
		expected Input
	}{
		{"confirmed passes bits", PlayerInput{Input: InputLeftUp, Status: StatusConfirmed}, InputLeftUp},
		{"predicted passes bits", PlayerInput{Input: InputRightDown, Status: StatusPredicted}, InputRightDown},
		{"disconnected contributes nothing", PlayerInput{Input: all, Status: StatusDisconnected}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Effective(); got != tc.expected {
				t.Errorf("Effective() = %04b, expected %04b", got, tc.expected)
			}
		})
	}
}

func TestEncodeLocalInput(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		keys     []Key
		expected Input
	}{
		{"no keys", RoleBoth, nil, 0},
		{"couch W", RoleBoth, []Key{KeyW}, InputLeftUp},
		{"couch S and Down", RoleBoth, []Key{KeyS, KeyDown}, InputLeftDown | InputRightDown},
		{"couch up arrow", RoleBoth, []Key{KeyUp}, InputRightUp},
		{"couch both bits", RoleBoth, []Key{KeyW, KeyS}, InputLeftUp | InputLeftDown},
		{"left role arrow", RoleLeft, []Key{KeyUp}, InputLeftUp},
		{"left role S", RoleLeft, []Key{KeyS}, InputLeftDown},
		{"right role W", RoleRight, []Key{KeyW}, InputRightUp},
		{"right role down arrow", RoleRight, []Key{KeyDown}, InputRightDown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys := NewKeyState(4)
			for _, k := range tc.keys {
				keys.Press(k)
			}
			if got := EncodeLocalInput(keys, tc.role); got != tc.expected {
				t.Errorf("EncodeLocalInput() = %04b, expected %04b", got, tc.expected)
			}
		})
	}
}

func TestKeyStateHoldExpires(t *testing.T) {
	keys := NewKeyState(3)
	keys.Press(KeyW)

	for i := 0; i < 3; i++ {
		if !keys.Held(KeyW) {
			t.Fatalf("key released early after %d ticks", i)
		}
		keys.Tick()
	}

	if keys.Held(KeyW) {
		t.Error("key should be released after hold window")
	}
}

func TestKeyStateRepeatExtendsHold(t *testing.T) {
	keys := NewKeyState(2)
	keys.Press(KeyDown)
	keys.Tick()
	keys.Press(KeyDown)
	keys.Tick()

	if !keys.Held(KeyDown) {
		t.Error("repeat press should extend the hold")
	}

	keys.Release()
	if keys.Held(KeyDown) {
		t.Error("Release should drop every key")
	}
}

func TestEncodeLocalInputNilKeys(t *testing.T) {
	if got := EncodeLocalInput(nil, RoleBoth); got != 0 {
		t.Errorf("EncodeLocalInput(nil) = %04b, expected 0", got)
	}
}
