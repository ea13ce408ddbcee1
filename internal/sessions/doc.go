// Package sessions gathers local login sessions from the utmp database.
//
// Records are glibc struct utmp in native byte order. Only user and dead
// process entries are reported, in file order, with every string cut to
// the wire ceilings.
package sessions
