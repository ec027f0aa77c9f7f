//go:build devtools

package app

const devtoolsCompiled = true
