// Generated by go-wayland-scanner
// https://github.com/rajveermalviya/go-wayland/cmd/go-wayland-scanner
// XML file : https://gitlab.freedesktop.org/wayland/wayland-protocols/-/raw/main/unstable/xdg-output/xdg-output-unstable-v1.xml
//
// xdg_output_unstable_v1 Protocol Copyright:
//
// Copyright © 2017 Red Hat Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a
// copy of this software and associated documentation files (the "Software"),
// to deal in the Software without restriction, including without limitation
// the rights to use, copy, modify, merge, publish, distribute, sublicense,
// and/or sell copies of the Software, and to permit persons to whom the
// Software is furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice (including the next
// paragraph) shall be included in all copies or substantial portions of the
// Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
// THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package xdgoutput

import "github.com/rajveermalviya/go-wayland/wayland/client"

// ZxdgOutputManagerV1 : manage xdg_output objects
//
// A global factory interface for xdg_output objects.
type ZxdgOutputManagerV1 struct {
	client.BaseProxy
}

// NewZxdgOutputManagerV1 : manage xdg_output objects
func NewZxdgOutputManagerV1(ctx *client.Context) *ZxdgOutputManagerV1 {
	zxdgOutputManagerV1 := &ZxdgOutputManagerV1{}
	ctx.Register(zxdgOutputManagerV1)
	return zxdgOutputManagerV1
}

// Destroy : destroy the xdg_output_manager object
//
// Using this request a client can tell the server that it is not
// going to use the xdg_output_manager object anymore.
//
// Any objects already created through this instance are not affected.
func (i *ZxdgOutputManagerV1) Destroy() error {
	defer i.Context().Unregister(i)
	const opcode = 0
	const _reqBufLen = 8
	var _reqBuf [_reqBufLen]byte
	l := 0
	client.PutUint32(_reqBuf[l:4], i.ID())
	l += 4
	client.PutUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	l += 4
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return err
}

// GetXdgOutput : create an xdg output from a wl_output
//
// This creates a new xdg_output object for the given wl_output.
func (i *ZxdgOutputManagerV1) GetXdgOutput(output *client.Output) (*ZxdgOutputV1, error) {
	id := NewZxdgOutputV1(i.Context())
	const opcode = 1
	const _reqBufLen = 8 + 4 + 4
	var _reqBuf [_reqBufLen]byte
	l := 0
	client.PutUint32(_reqBuf[l:4], i.ID())
	l += 4
	client.PutUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	l += 4
	client.PutUint32(_reqBuf[l:l+4], id.ID())
	l += 4
	client.PutUint32(_reqBuf[l:l+4], output.ID())
	l += 4
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return id, err
}

func (i *ZxdgOutputManagerV1) Dispatch(opcode uint32, fd int, data []byte) {}

// ZxdgOutputV1 : compositor logical output region
//
// An xdg_output describes part of the compositor geometry.
//
// This typically corresponds to a monitor that displays part of the
// compositor space.
type ZxdgOutputV1 struct {
	client.BaseProxy
	logicalPositionHandler ZxdgOutputV1LogicalPositionHandlerFunc
	logicalSizeHandler     ZxdgOutputV1LogicalSizeHandlerFunc
	doneHandler            ZxdgOutputV1DoneHandlerFunc
	nameHandler            ZxdgOutputV1NameHandlerFunc
	descriptionHandler     ZxdgOutputV1DescriptionHandlerFunc
}

// NewZxdgOutputV1 : compositor logical output region
func NewZxdgOutputV1(ctx *client.Context) *ZxdgOutputV1 {
	zxdgOutputV1 := &ZxdgOutputV1{}
	ctx.Register(zxdgOutputV1)
	return zxdgOutputV1
}

// Destroy : destroy the xdg_output object
//
// Using this request a client can tell the server that it is not
// going to use the xdg_output object anymore.
func (i *ZxdgOutputV1) Destroy() error {
	defer i.Context().Unregister(i)
	const opcode = 0
	const _reqBufLen = 8
	var _reqBuf [_reqBufLen]byte
	l := 0
	client.PutUint32(_reqBuf[l:4], i.ID())
	l += 4
	client.PutUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	l += 4
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return err
}

// ZxdgOutputV1LogicalPositionEvent : position of the output within the global compositor space
//
// The position event describes the location of the wl_output within
// the global compositor space.
type ZxdgOutputV1LogicalPositionEvent struct {
	X int32
	Y int32
}
type ZxdgOutputV1LogicalPositionHandlerFunc func(ZxdgOutputV1LogicalPositionEvent)

// SetLogicalPositionHandler : sets handler for ZxdgOutputV1LogicalPositionEvent
func (i *ZxdgOutputV1) SetLogicalPositionHandler(f ZxdgOutputV1LogicalPositionHandlerFunc) {
	i.logicalPositionHandler = f
}

// ZxdgOutputV1LogicalSizeEvent : size of the output in the global compositor space
//
// The logical_size event describes the size of the output in the
// global compositor space.
//
// Most regular Wayland clients should not pay attention to the
// logical size and would rather rely on xdg_shell interfaces.
type ZxdgOutputV1LogicalSizeEvent struct {
	Width  int32
	Height int32
}
type ZxdgOutputV1LogicalSizeHandlerFunc func(ZxdgOutputV1LogicalSizeEvent)

// SetLogicalSizeHandler : sets handler for ZxdgOutputV1LogicalSizeEvent
func (i *ZxdgOutputV1) SetLogicalSizeHandler(f ZxdgOutputV1LogicalSizeHandlerFunc) {
	i.logicalSizeHandler = f
}

// ZxdgOutputV1DoneEvent : all information about the output have been sent
//
// This event is sent after all other properties of an xdg_output
// have been sent.
//
// For objects version 3 onwards, this event is deprecated. Compositors
// are not required to send it anymore and must send wl_output.done
// instead.
type ZxdgOutputV1DoneEvent struct{}
type ZxdgOutputV1DoneHandlerFunc func(ZxdgOutputV1DoneEvent)

// SetDoneHandler : sets handler for ZxdgOutputV1DoneEvent
func (i *ZxdgOutputV1) SetDoneHandler(f ZxdgOutputV1DoneHandlerFunc) {
	i.doneHandler = f
}

// ZxdgOutputV1NameEvent : name of this output
//
// Many compositors will assign names to their outputs, show them to the
// user, allow them to be configured by name, etc. The client may wish to
// know this name as well to offer the user similar behaviors.
//
// Since version 2.
type ZxdgOutputV1NameEvent struct {
	Name string
}
type ZxdgOutputV1NameHandlerFunc func(ZxdgOutputV1NameEvent)

// SetNameHandler : sets handler for ZxdgOutputV1NameEvent
func (i *ZxdgOutputV1) SetNameHandler(f ZxdgOutputV1NameHandlerFunc) {
	i.nameHandler = f
}

// ZxdgOutputV1DescriptionEvent : human-readable description of this output
//
// Many compositors can produce human-readable descriptions of their
// outputs.  The client may wish to know this description as well, to
// communicate the user for which output a surface is being displayed, etc.
//
// Since version 2.
type ZxdgOutputV1DescriptionEvent struct {
	Description string
}
type ZxdgOutputV1DescriptionHandlerFunc func(ZxdgOutputV1DescriptionEvent)

// SetDescriptionHandler : sets handler for ZxdgOutputV1DescriptionEvent
func (i *ZxdgOutputV1) SetDescriptionHandler(f ZxdgOutputV1DescriptionHandlerFunc) {
	i.descriptionHandler = f
}

func (i *ZxdgOutputV1) Dispatch(opcode uint32, fd int, data []byte) {
	switch opcode {
	case 0:
		if i.logicalPositionHandler == nil {
			return
		}
		var e ZxdgOutputV1LogicalPositionEvent
		l := 0
		e.X = int32(client.Uint32(data[l : l+4]))
		l += 4
		e.Y = int32(client.Uint32(data[l : l+4]))
		l += 4
		i.logicalPositionHandler(e)
	case 1:
		if i.logicalSizeHandler == nil {
			return
		}
		var e ZxdgOutputV1LogicalSizeEvent
		l := 0
		e.Width = int32(client.Uint32(data[l : l+4]))
		l += 4
		e.Height = int32(client.Uint32(data[l : l+4]))
		l += 4
		i.logicalSizeHandler(e)
	case 2:
		if i.doneHandler == nil {
			return
		}
		var e ZxdgOutputV1DoneEvent
		i.doneHandler(e)
	case 3:
		if i.nameHandler == nil {
			return
		}
		var e ZxdgOutputV1NameEvent
		l := 0
		nameLen := client.PaddedLen(int(client.Uint32(data[l : l+4])))
		l += 4
		e.Name = client.String(data[l : l+nameLen])
		l += nameLen
		i.nameHandler(e)
	case 4:
		if i.descriptionHandler == nil {
			return
		}
		var e ZxdgOutputV1DescriptionEvent
		l := 0
		descriptionLen := client.PaddedLen(int(client.Uint32(data[l : l+4])))
		l += 4
		e.Description = client.String(data[l : l+descriptionLen])
		l += descriptionLen
		i.descriptionHandler(e)
	}
}
