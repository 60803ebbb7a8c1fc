package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Время жизни хэндлов
	LifeInfo                 Code = 1000
	LifeUseAfterInvalidation Code = 1001
	LifeDanglingHandles      Code = 1002
	LifeNotOwned             Code = 1003
	LifeNullHandle           Code = 1004

	// Возможности хэндлов
	CapInfo            Code = 2000
	CapImmutableObject Code = 2001

	// Гонки
	RaceInfo                   Code = 3000
	RaceConcurrentAccess       Code = 3001
	RaceUnsynchronizedMutation Code = 3002

	// Политика многопоточности
	PolInfo      Code = 4000
	PolViolation Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                "Unknown error",
		LifeInfo:                   "Handle lifetime information",
		LifeUseAfterInvalidation:   "Use of an invalidated handle",
		LifeDanglingHandles:        "Context destroyed with live handles",
		LifeNotOwned:               "Object is owned by a parent",
		LifeNullHandle:             "Native call returned a null object",
		CapInfo:                    "Handle capability information",
		CapImmutableObject:         "Mutation of a uniqued object",
		RaceInfo:                   "Race guard information",
		RaceConcurrentAccess:       "Concurrent access to a non-uniqued object",
		RaceUnsynchronizedMutation: "Unsynchronized mutation inside a parallel region",
		PolInfo:                    "Threading policy information",
		PolViolation:               "Illegal threading policy transition",
	}

	codeNames = map[Code]string{
		LifeUseAfterInvalidation:   "use_after_invalidation",
		LifeDanglingHandles:        "dangling_handles",
		LifeNotOwned:               "not_owned",
		LifeNullHandle:             "null_handle",
		CapImmutableObject:         "immutable_object",
		RaceConcurrentAccess:       "concurrent_access_violation",
		RaceUnsynchronizedMutation: "unsynchronized_concurrent_mutation",
		PolViolation:               "policy_violation",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LIF%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CAP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RACE%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("POL%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

// Name returns the snake_case name used in scenario files and metric labels.
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts a snake_case name, a CamelCase name or an ID.
func ParseCode(s string) (Code, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for code, name := range codeNames {
		if key == strings.ReplaceAll(name, "_", "") || key == strings.ToLower(code.ID()) {
			return code, true
		}
	}
	return UnknownCode, false
}

// Codes lists every violation code in numeric order.
func Codes() []Code {
	return []Code{
		LifeUseAfterInvalidation,
		LifeDanglingHandles,
		LifeNotOwned,
		LifeNullHandle,
		CapImmutableObject,
		RaceConcurrentAccess,
		RaceUnsynchronizedMutation,
		PolViolation,
	}
}
