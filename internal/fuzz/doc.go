// Package fuzztests houses Go fuzz harnesses that push arbitrary bytes
// through every registered language: parse, attach comments, build the
// layout and print. Its goal is to guard against panics, hangs and output
// that changes when formatted twice.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/format, internal/lang/..., internal/testkit.
package fuzztests
