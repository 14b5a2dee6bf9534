package loader

import (
	"regexp"
	"strings"

	"github.com/screepers/screeps-build/fail"
)

// ScaffoldTemplate is a versioned description of the scaffold a generator
// wraps around the useful initialization logic in its JS output. The prefix
// and suffix are the generator's literal output with Placeholder standing in
// for the project-specific module name. Matching is structural: whitespace
// runs inside the templates are treated as flexible, so reformatting in the
// generator does not break the match, but any other change does.
type ScaffoldTemplate struct {
	Name        string
	Version     string
	Prefix      string
	Suffix      string
	Placeholder string
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// pattern turns literal template text into a whitespace-flexible,
// placeholder-aware regular expression fragment.
func (t ScaffoldTemplate) pattern(text string) string {
	escaped := regexp.QuoteMeta(text)
	escaped = whitespaceRe.ReplaceAllString(escaped, `\s*`)
	return strings.ReplaceAll(escaped, t.Placeholder, `[A-Za-z0-9_-]*`)
}

func (t ScaffoldTemplate) String() string {
	return t.Name + " v" + t.Version
}

// Extract returns the text lying strictly between the anchored prefix and
// suffix. sourcePath is used only for error reporting.
func (t ScaffoldTemplate) Extract(sourcePath, input string) (string, error) {
	prefixRe := regexp.MustCompile("^" + t.pattern(t.Prefix))
	suffixRe := regexp.MustCompile(t.pattern(t.Suffix) + "$")

	prefixMatch := prefixRe.FindStringIndex(input)
	if prefixMatch == nil {
		return "", fail.ShapeMismatch(sourcePath, "prefix", t.String())
	}

	suffixMatch := suffixRe.FindStringIndex(input)
	if suffixMatch == nil || suffixMatch[0] < prefixMatch[1] {
		return "", fail.ShapeMismatch(sourcePath, "suffix", t.String())
	}

	return input[prefixMatch[1]:suffixMatch[0]], nil
}

// CargoWeb is the scaffold cargo-web emits around the stdweb initialization
// body. The text below is ground truth for "the generator's output shape":
// when cargo-web changes it, Extract fails with a shape mismatch naming this
// template, which is the signal to update the template rather than a bug in
// the input project.
var CargoWeb = ScaffoldTemplate{
	Name:        "cargo-web",
	Version:     "0.6",
	Placeholder: "XXX",
	Prefix: `"use strict";

if( typeof Rust === "undefined" ) {
    var Rust = {};
}

(function( root, factory ) {
    if( typeof define === "function" && define.amd ) {
        define( [], factory );
    } else if( typeof module === "object" && module.exports ) {
        module.exports = factory();
    } else {
        Rust.XXX = factory();
    }
}( this, function() {
    return (function( module_factory ) {
        var instance = module_factory();

        if( typeof process === "object" && typeof process.versions === "object" && typeof process.versions.node === "string" ) {
            var fs = require( "fs" );
            var path = require( "path" );
            var wasm_path = path.join( __dirname, "XXX.wasm" );
            var buffer = fs.readFileSync( wasm_path );
            var mod = new WebAssembly.Module( buffer );
            var wasm_instance = new WebAssembly.Instance( mod, instance.imports );
            return instance.initialize( wasm_instance );
        } else {
            var file = fetch( "XXX.wasm", {credentials: "same-origin"} );

            var wasm_instance = ( typeof WebAssembly.instantiateStreaming === "function"
                ? WebAssembly.instantiateStreaming( file, instance.imports )
                    .then( function( result ) { return result.instance; } )

                : file
                    .then( function( response ) { return response.arrayBuffer(); } )
                    .then( function( bytes ) { return WebAssembly.compile( bytes ); } )
                    .then( function( mod ) { return WebAssembly.instantiate( mod, instance.imports ) } ) );

            return wasm_instance
                .then( function( wasm_instance ) {
                    var exports = instance.initialize( wasm_instance );
                    console.log( "Finished loading Rust wasm module 'XXX'" );
                    return exports;
                })
                .catch( function( error ) {
                    console.log( "Error loading Rust wasm module 'XXX':", error );
                    throw error;
                });
        }
    }( function() {`,
	Suffix: `
    }
     ));
    }));
    `,
}
