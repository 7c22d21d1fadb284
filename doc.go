// Package parley provides an adventure-game command parser: a small
// expression language, a command pattern matcher, and pronoun
// binding, tied together into playable game sessions.
//
// The expression evaluator is in package 'expr', the matcher is in
// 'match', pronouns are in 'pronoun', and sessions are in 'game'.
// Some command-line tools are in `cmd`.
package parley
