package mock

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/log"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/store"
)

// make sure we implement the Context interface
var _ node.Context = (*Context)(nil)

// ContextData holds the fields a mock Context reports, settable by a
// node unit test without spinning up a computer.
type ContextData struct {
	Name   string
	Config config.Config
	Store  store.Store
	Ctr    int64
}

// Context is a node.Context usable directly against a Processor or
// Producer in a unit test.
type Context struct {
	Data ContextData
	accu map[string]interface{}
}

// NodeName returns the mocked node name.
func (c *Context) NodeName() (name string) {
	return c.Data.Name
}

// Config returns the mocked settings.
func (c *Context) Config() (cfg config.Config) {
	return c.Data.Config
}

// Logger returns a logger carrying the mocked node name.
func (c *Context) Logger() log.Logger {
	return log.New("node", c.Data.Name)
}

// Ctr returns the mocked current counter.
func (c *Context) Ctr() int64 {
	return c.Data.Ctr
}

// Store returns the mocked store regardless of name.
func (c *Context) Store(name string) (s store.Store, err error) {
	return c.Data.Store, nil
}

// RetAccu stages a partial emission, mirroring node.execContext.
func (c *Context) RetAccu(port string, value interface{}) {
	if c.accu == nil {
		c.accu = make(map[string]interface{})
	}
	c.accu[port] = value
}

// RetFlush returns and clears staged emissions.
func (c *Context) RetFlush() map[string]interface{} {
	flushed := c.accu
	c.accu = nil
	return flushed
}
