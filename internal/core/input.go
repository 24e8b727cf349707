package core

// Input is one player's control intent for a single logical frame.
// Each paddle owns an up bit and a down bit; the remaining bits are reserved.
type Input uint8

// Paddle intent bits.
const (
	InputLeftUp    Input = 0b0001
	InputLeftDown  Input = 0b0010
	InputRightDown Input = 0b0100
	InputRightUp   Input = 0b1000
)

// Has reports whether every bit in mask is set.
func (in Input) Has(mask Input) bool {
	return in&mask == mask
}

// InputStatus describes where a player's input for a frame came from.
type InputStatus uint8

const (
	StatusConfirmed    InputStatus = iota // Input was received from its owner
	StatusPredicted                       // Input was guessed by the session
	StatusDisconnected                    // Owner is gone; input contributes nothing
)

// String returns a human-readable name for the status.
func (s InputStatus) String() string {
	switch s {
	case StatusConfirmed:
		return "Confirmed"
	case StatusPredicted:
		return "Predicted"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// PlayerInput pairs an input with its status.
type PlayerInput struct {
	Input  Input
	Status InputStatus
}

// Effective returns the bits this input contributes to the simulation.
// Disconnected sources contribute nothing regardless of their payload.
func (p PlayerInput) Effective() Input {
	if p.Status == StatusDisconnected {
		return 0
	}
	return p.Input
}

// PlayerHandle identifies a player slot in a session.
// Handle 0 drives the left paddle, handle 1 the right paddle.
type PlayerHandle int

const (
	PlayerLeft  PlayerHandle = 0
	PlayerRight PlayerHandle = 1
)

// Role selects which paddle bits the local keyboard drives.
type Role int

const (
	RoleBoth  Role = iota // Couch play: W/S left paddle, arrows right paddle
	RoleLeft              // Online as left player: any up/down key drives the left paddle
	RoleRight             // Online as right player
)

// RoleForHandle returns the role a local player with the given handle plays.
func RoleForHandle(h PlayerHandle) Role {
	if h == PlayerRight {
		return RoleRight
	}
	return RoleLeft
}

// Key is a physical control the platform layer can report.
type Key int

const (
	KeyW Key = iota
	KeyS
	KeyUp
	KeyDown
	keyCount
)

// KeyState tracks which keys are held.
// Terminals report presses but not releases, so a press keeps a key held
// for a fixed number of logical frames after the last repeat.
type KeyState struct {
	holdTicks int
	remaining [keyCount]int
}

// NewKeyState creates a key state where a press lasts holdTicks frames.
func NewKeyState(holdTicks int) *KeyState {
	if holdTicks < 1 {
		holdTicks = 1
	}
	return &KeyState{holdTicks: holdTicks}
}

// Press marks a key as held.
func (k *KeyState) Press(key Key) {
	if key < 0 || key >= keyCount {
		return
	}
	k.remaining[key] = k.holdTicks
}

// Held reports whether a key is currently held.
func (k *KeyState) Held(key Key) bool {
	if key < 0 || key >= keyCount {
		return false
	}
	return k.remaining[key] > 0
}

// Tick ages every held key by one logical frame.
func (k *KeyState) Tick() {
	for i := range k.remaining {
		if k.remaining[i] > 0 {
			k.remaining[i]--
		}
	}
}

// Release drops every held key.
func (k *KeyState) Release() {
	k.remaining = [keyCount]int{}
}

// EncodeLocalInput builds the input for the local player from held keys.
// Up and down may both be set; the simulation resolves that to no movement.
func EncodeLocalInput(keys *KeyState, role Role) Input {
	var in Input
	if keys == nil {
		return in
	}

	switch role {
	case RoleBoth:
		if keys.Held(KeyW) {
			in |= InputLeftUp
		}
		if keys.Held(KeyS) {
			in |= InputLeftDown
		}
		if keys.Held(KeyUp) {
			in |= InputRightUp
		}
		if keys.Held(KeyDown) {
			in |= InputRightDown
		}
	case RoleLeft:
		if keys.Held(KeyW) || keys.Held(KeyUp) {
			in |= InputLeftUp
		}
		if keys.Held(KeyS) || keys.Held(KeyDown) {
			in |= InputLeftDown
		}
	case RoleRight:
		if keys.Held(KeyW) || keys.Held(KeyUp) {
			in |= InputRightUp
		}
		if keys.Held(KeyS) || keys.Held(KeyDown) {
			in |= InputRightDown
		}
	}

	return in
}
