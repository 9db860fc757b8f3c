// Package fuzztests houses Go fuzz harnesses for the front of the checker:
// type notation parsing and manifest decoding followed by a full check.
// The goal is to catch panics and runaway allocations on arbitrary input.
//
// Назначение: прогонять байты через hir.ParseType, hir.ParsePath и
// project.DecodeManifest + driver.CheckManifest.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
