//go:build windows

package cli

import (
	"errors"

	"golang.org/x/sys/windows"
)

type terminalState struct {
	stdin     windows.Handle
	savedMode uint32
}

func makeRaw(fd int) (*terminalState, error) {
	stdin, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return nil, err
	}
	var saved uint32
	if err := windows.GetConsoleMode(stdin, &saved); err != nil {
		if errors.Is(err, windows.ERROR_INVALID_HANDLE) {
			return nil, nil
		}
		return nil, err
	}

	raw := saved
	raw &^= windows.ENABLE_ECHO_INPUT
	raw &^= windows.ENABLE_LINE_INPUT
	raw &^= windows.ENABLE_PROCESSED_INPUT
	raw |= windows.ENABLE_VIRTUAL_TERMINAL_INPUT

	if err := windows.SetConsoleMode(stdin, raw); err != nil {
		return nil, err
	}

	return &terminalState{stdin: stdin, savedMode: saved}, nil
}

func restore(fd int, state *terminalState) {
	if state == nil {
		return
	}
	_ = windows.SetConsoleMode(state.stdin, state.savedMode)
}
