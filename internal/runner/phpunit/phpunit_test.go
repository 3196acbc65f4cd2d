package phpunit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/phpunit"
)

const calculatorSource = `<?php

namespace Tests;

use PHPUnit\Framework\TestCase;

class CalculatorTest extends TestCase
{
    public function testAdd(): void
    {
        $this->assertEquals(2, 1 + 1);
    }

    public function testSubtract(): void
    {
        $this->assertEquals(0, 1 - 1);
    }

    public function testFail1(): void
    {
        $this->assertEquals(1, 8);
    }
}
`

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "CalculatorTest.php")
	require.NoError(t, os.WriteFile(file, []byte(calculatorSource), 0o644))

	items, err := phpunit.Discover(file)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "CalculatorTest::testAdd", items[0].Id)
	assert.Equal(t, "CalculatorTest::testSubtract", items[1].Id)
	assert.Equal(t, "CalculatorTest::testFail1", items[2].Id)
}

const junitFixture = `<?xml version="1.0" encoding="UTF-8"?>
<testsuites>
  <testsuite name="Tests\CalculatorTest" tests="3" failures="1">
    <testcase name="testAdd" class="Tests\CalculatorTest"/>
    <testcase name="testSubtract" class="Tests\CalculatorTest"/>
    <testcase name="testFail1" class="Tests\CalculatorTest">
      <failure type="PHPUnit\Framework\ExpectationFailedException">Tests\CalculatorTest::testFail1
Failed asserting that 8 matches expected 1.

/home/kbwo/testing-language-server/demo/phpunit/src/CalculatorTest.php:28</failure>
    </testcase>
  </testsuite>
</testsuites>
`

func TestParseDiagnostics(t *testing.T) {
	result := phpunit.ParseDiagnostics(junitFixture)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "/home/kbwo/testing-language-server/demo/phpunit/src/CalculatorTest.php", result.Data[0].Path)
	require.Len(t, result.Data[0].Diagnostics, 1)
	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(27), diag.Range.Start.Line)
	assert.Equal(t, "Tests\\CalculatorTest::testFail1\nFailed asserting that 8 matches expected 1", diag.Message)
}
