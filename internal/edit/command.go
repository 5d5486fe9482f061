// Package edit builds the edit commands sent to the engine.
//
// Every edit travels in an "edit" envelope addressed to one view:
//
//	{"method":"edit","view_id":"view-id-1","params":{"method":"insert","params":{"chars":"a"}}}
//
// The set of command names is fixed; Lookup rejects anything else.
package edit

import (
	"fmt"
	"sort"
)

// Name is an edit command name understood by the engine.
type Name string

// Commands without parameters.
const (
	DeleteForward  Name = "delete_forward"
	DeleteBackward Name = "delete_backward"
	InsertNewline  Name = "insert_newline"
	InsertTab      Name = "insert_tab"

	MoveUp                             Name = "move_up"
	MoveUpAndModifySelection           Name = "move_up_and_modify_selection"
	MoveDown                           Name = "move_down"
	MoveDownAndModifySelection         Name = "move_down_and_modify_selection"
	MoveLeft                           Name = "move_left"
	MoveLeftAndModifySelection         Name = "move_left_and_modify_selection"
	MoveRight                          Name = "move_right"
	MoveRightAndModifySelection        Name = "move_right_and_modify_selection"
	MoveWordLeft                       Name = "move_word_left"
	MoveWordLeftAndModifySelection     Name = "move_word_left_and_modify_selection"
	MoveWordRight                      Name = "move_word_right"
	MoveWordRightAndModifySelection    Name = "move_word_right_and_modify_selection"
	MoveToLeftEndOfLine                Name = "move_to_left_end_of_line"
	MoveToLeftEndOfLineAndModify       Name = "move_to_left_end_of_line_and_modify_selection"
	MoveToRightEndOfLine               Name = "move_to_right_end_of_line"
	MoveToRightEndOfLineAndModify      Name = "move_to_right_end_of_line_and_modify_selection"
	MoveToBeginningOfDocument          Name = "move_to_beginning_of_document"
	MoveToBeginningOfDocumentAndModify Name = "move_to_beginning_of_document_and_modify_selection"
	MoveToEndOfDocument                Name = "move_to_end_of_document"
	MoveToEndOfDocumentAndModify       Name = "move_to_end_of_document_and_modify_selection"

	PageUp                     Name = "page_up"
	PageUpAndModifySelection   Name = "page_up_and_modify_selection"
	PageDown                   Name = "page_down"
	PageDownAndModifySelection Name = "page_down_and_modify_selection"

	SelectAll Name = "select_all"
	Transpose Name = "transpose"
	Undo      Name = "undo"
	Redo      Name = "redo"
	Cut       Name = "cut"
	Copy      Name = "copy"
)

// Commands with parameters.
const (
	Insert Name = "insert"
	Click  Name = "click"
	Drag   Name = "drag"
	Scroll Name = "scroll"
)

var simple = map[Name]bool{
	DeleteForward: true, DeleteBackward: true, InsertNewline: true, InsertTab: true,
	MoveUp: true, MoveUpAndModifySelection: true,
	MoveDown: true, MoveDownAndModifySelection: true,
	MoveLeft: true, MoveLeftAndModifySelection: true,
	MoveRight: true, MoveRightAndModifySelection: true,
	MoveWordLeft: true, MoveWordLeftAndModifySelection: true,
	MoveWordRight: true, MoveWordRightAndModifySelection: true,
	MoveToLeftEndOfLine: true, MoveToLeftEndOfLineAndModify: true,
	MoveToRightEndOfLine: true, MoveToRightEndOfLineAndModify: true,
	MoveToBeginningOfDocument: true, MoveToBeginningOfDocumentAndModify: true,
	MoveToEndOfDocument: true, MoveToEndOfDocumentAndModify: true,
	PageUp: true, PageUpAndModifySelection: true,
	PageDown: true, PageDownAndModifySelection: true,
	SelectAll: true, Transpose: true, Undo: true, Redo: true, Cut: true, Copy: true,
}

var parameterized = map[Name]bool{
	Insert: true, Click: true, Drag: true, Scroll: true,
}

// Command is one edit command with its parameters.
type Command struct {
	Name   Name
	Params any
}

// Lookup returns the parameterless command called name.
func Lookup(name string) (Command, error) {
	n := Name(name)
	if simple[n] {
		return Command{Name: n}, nil
	}
	if parameterized[n] {
		return Command{}, fmt.Errorf("edit command %q needs parameters", name)
	}
	return Command{}, fmt.Errorf("unknown edit command %q", name)
}

// Known reports whether name is in the catalogue.
func Known(name string) bool {
	return simple[Name(name)] || parameterized[Name(name)]
}

// SimpleNames lists the parameterless commands in sorted order.
func SimpleNames() []string {
	names := make([]string, 0, len(simple))
	for n := range simple {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

// InsertChars inserts text at every cursor.
func InsertChars(chars string) Command {
	return Command{Name: Insert, Params: map[string]string{"chars": chars}}
}

// ClickAt places the cursor. count is the click count (2 for double click).
func ClickAt(line, col int, mods Modifiers, count int) Command {
	return Command{Name: Click, Params: []int{line, col, int(mods), count}}
}

// DragTo extends the selection to a position.
func DragTo(line, col int, mods Modifiers) Command {
	return Command{Name: Drag, Params: []int{line, col, int(mods)}}
}

// ScrollTo reports the visible line window [first, last) to the engine,
// which answers with an update covering it.
func ScrollTo(first, last int) Command {
	return Command{Name: Scroll, Params: []int{first, last}}
}
