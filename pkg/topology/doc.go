/*
Package topology constructs the namespace tables the CLIs register with a
resolver.

Default supplies the built-in topology: one namespace per integrated
service credential group, each layering environment variables over
integrated YAML/JSON files and a legacy .conf file. LoadFile reads a
declarative YAML topology document instead, for deployments whose layout
diverges from the default.
*/
package topology
