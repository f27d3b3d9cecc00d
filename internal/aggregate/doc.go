// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package aggregate streams ordered output blocks into a single delimited document.
//
// A Writer emits one opening marker, then each block's lines with a separator between
// consecutive blocks, then one closing marker. With the defaults the blocks "A", "B"
// and "C" become "[A,B,C]" and "A", "" and "C" become "[A,,C]". Summary lines such as
// "3 warnings" are dropped. WithSkipEmptyBlocks also drops blank lines and leaves no
// separator for blocks that kept nothing.
//
// Only the block currently being appended is read, the Writer never holds the whole
// document in memory. Callers are responsible for appending blocks in the order they
// should appear.
package aggregate
