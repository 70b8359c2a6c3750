// Package config decodes the declared step payloads delivered under the
// assets directory and loads the optional daemon settings file. Payloads are
// base64-wrapped JSON envelopes of the form {"data": <step config>}; decoded
// structs are validated before the engine ever sees them.
package config
