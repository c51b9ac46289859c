// Package deps reports whether the docker binary the default request source
// shells out to is installed.
package deps
