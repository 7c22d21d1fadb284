/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core provides the shared gear for the player-input front
// end: game variables (VarStore), the characters and objects the
// player can talk about (Registry), and pluggable Interpreters for
// game-authored code.
//
// The expression language lives in package expr, the command-pattern
// matcher in package match, and pronoun handling in package pronoun.
// All of them talk to the game only through the interfaces defined
// here, so a host can plug in whatever storage it has.
//
// Vars and World are simple in-memory implementations that are good
// enough for tests, tools, and YAML-defined games (see package game).
//
// See https://github.com/Comcast/parley for an overview.
package core
